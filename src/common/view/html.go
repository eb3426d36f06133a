package view

import (
	"html/template"
	"io"
)

const page = `<!DOCTYPE html>
<html lang="de">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Commute Board</title>
{{- if .Loading}}
<meta http-equiv="refresh" content="2">
{{- end}}
<script src="https://cdn.tailwindcss.com"></script>
</head>
<body class="bg-gray-900">
<div class="rounded-xl text-white">
{{- if .Loading}}
<div class="w-screen h-screen flex justify-center items-center">Loading...</div>
{{- else}}
<div>
{{- range .Segments}}
{{- if .Failed}}
<div class="rounded-lg text-white flex ring-1 ring-red-700 shadow-md m-4 p-4 items-center" data-query="{{.Name}}">
  <div class="h-0.5 w-8 {{.LineClass}}"></div>
  <p class="px-4 text-sm text-red-400">{{.Name}} unavailable{{if .Reason}}: {{.Reason}}{{end}}</p>
</div>
{{- else}}
<div class="rounded-lg text-white flex ring-1 ring-gray-700 shadow-md m-4 p-4 items-center" data-query="{{.Name}}">
  <div class="flex flex-col pr-4">
    <p>{{.Departure.Planned}}</p>
    {{- if .Departure.Delayed}}
    <p class="text-sm {{.Departure.Class}}">{{.Departure.Actual}}</p>
    {{- end}}
    <p class="text-xs max-w-24 text-ellipsis whitespace-nowrap overflow-hidden">{{.Departure.Station}}</p>
  </div>
  <div class="h-0.5 flex-grow {{.LineClass}}"></div>
  <div class="p-4 text-center text-xs">
    <p>{{.Duration}}min </p>
    <p>{{.Line}}</p>
  </div>
  <div class="h-0.5 flex-grow {{.LineClass}}"></div>
  <div class="flex flex-col text-right pl-4">
    <p>{{.Arrival.Planned}}</p>
    {{- if .Arrival.Delayed}}
    <p class="text-sm {{.Arrival.Class}}">{{.Arrival.Actual}}</p>
    {{- end}}
    <p class="text-xs max-w-24 text-ellipsis whitespace-nowrap overflow-hidden">{{.Arrival.Station}}</p>
  </div>
</div>
{{- end}}
{{- end}}
</div>
{{- end}}
</div>
</body>
</html>
`

var pageTemplate = template.Must(template.New("board").Parse(page))

func RenderHTML(w io.Writer, board Board) error {
	return pageTemplate.Execute(w, board)
}
