package utils

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

func rabbitURL() string {
	mqUser := GetEnv("MQ_USER", "guest")
	mqPassword := GetEnv("MQ_PASSWORD", "guest")
	mqHost := GetEnv("MQ_HOST", "rabbitmq")
	mqPort := GetEnv("MQ_PORT", "5672")

	return fmt.Sprintf("amqp://%s:%s@%s:%s/", mqUser, mqPassword, mqHost, mqPort)
}

func NewRabbitConnection() (*amqp.Connection, *amqp.Channel, error) {
	connection, err := NewRabbitConnectionOnly()
	if err != nil {
		return nil, nil, err
	}
	channel, err := connection.Channel()
	if err != nil {
		connection.Close()
		return nil, nil, err
	}

	return connection, channel, nil
}

func NewRabbitConnectionOnly() (*amqp.Connection, error) {
	config := amqp.Config{
		Heartbeat: 60 * time.Second,
		Locale:    "en_US",
	}

	connection, err := amqp.DialConfig(rabbitURL(), config)
	if err != nil {
		return nil, err
	}

	return connection, nil
}

func NewStompConnection() (*stomp.Conn, error) {
	url := GetEnv("STOMP_ENDPOINT", "rabbitmq:61613")
	username := os.Getenv("STOMP_USERNAME")
	password := os.Getenv("STOMP_PASSWORD")

	opts := []func(*stomp.Conn) error{
		stomp.ConnOpt.HeartBeat(30*time.Second, 30*time.Second),
	}
	if username != "" {
		opts = append(opts, stomp.ConnOpt.Login(username, password))
	}

	conn, err := stomp.Dial("tcp", url, opts...)
	if err != nil {
		return nil, err
	}

	return conn, nil
}

func NewRedisClient() *redis.Client {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		// default to the redis service in the cluster
		redisAddr = "redis:6379"
	}

	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	})

	return rdb
}

func NewPostgresConnection() (*pgxpool.Pool, error) {
	host := GetEnv("POSTGRES_HOST", "postgres")
	port := GetEnv("POSTGRES_PORT", "5432")
	user := os.Getenv("POSTGRES_USER")
	password := os.Getenv("POSTGRES_PASSWORD")
	dbname := GetEnv("POSTGRES_DB", "board")

	dbConnectionString := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname,
	)

	connection, err := pgxpool.New(context.Background(), dbConnectionString)
	if err != nil {
		return nil, err
	}

	return connection, nil
}
