// Package kafka provides methods for initiating kafka-topics for the app, a kafka readiness-probing
// and the publisher of image lifecycle events
package kafka

import (
	"context"
	"errors"
	"log"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// InitKafkaTopics - creates topics in kafka; gives up when ctx is done
func InitKafkaTopics(ctx context.Context, brokerAddr string, delay time.Duration, topics ...string) error {
	client := &kafkago.Client{
		Addr:    kafkago.TCP(brokerAddr),
		Timeout: 10 * time.Second,
	}

	req := kafkago.CreateTopicsRequest{
		Topics: make([]kafkago.TopicConfig, 0, len(topics)),
	}

	for _, t := range topics {
		topic := kafkago.TopicConfig{
			Topic:             t,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
		req.Topics = append(req.Topics, topic)
	}

	for {
		resp, err := client.CreateTopics(ctx, &req)
		if err == nil {
			failed := 0
			for k, v := range resp.Errors {
				switch {
				case v == nil, errors.Is(v, kafkago.TopicAlreadyExists):
				default:
					failed++
					log.Printf("Topic %q creation error: %v", k, v)
				}
			}
			if failed == 0 {
				log.Println("All topics created successfully!")
				return nil
			}
		} else {
			log.Printf("Failed to run topics creation request: %v\nWait %v before next try...", err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// WaitKafkaReady - dials the broker until it answers or attempts run out
func WaitKafkaReady(ctx context.Context, brokerAddr string, attempts int, delay time.Duration) error {
	var err error
	for range attempts {
		var conn *kafkago.Conn
		conn, err = kafkago.DialContext(ctx, "tcp", brokerAddr)
		if err == nil {
			if errConn := conn.Close(); errConn != nil {
				log.Println("Failed to close connection after testing Kafka readyness:", errConn)
			}
			log.Println("Kafka is ready!")
			return nil
		}
		log.Printf("Kafka not ready, retrying in %v...", delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
