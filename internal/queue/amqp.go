package queue

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPDispatcher publishes tasks to a durable RabbitMQ queue and consumes
// them in-process. Unlike the memory driver, tasks survive restarts; failed
// deliveries are requeued once and then dead-lettered by the broker.
type AMQPDispatcher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	handler Handler
}

// NewAMQPDispatcher connects, declares the queue and starts the consumer.
func NewAMQPDispatcher(url, queueName string, handler Handler) (*AMQPDispatcher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	d := &AMQPDispatcher{
		conn:    conn,
		channel: ch,
		queue:   queueName,
		handler: handler,
	}

	if err := d.setup(); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := d.consume(); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return d, nil
}

func (d *AMQPDispatcher) setup() error {
	dlq := d.queue + "_dlq"

	if err := d.channel.ExchangeDeclare(
		dlq+"_exchange",
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if _, err := d.channel.QueueDeclare(
		dlq,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return err
	}

	if err := d.channel.QueueBind(dlq, dlq, dlq+"_exchange", false, nil); err != nil {
		return err
	}

	_, err := d.channel.QueueDeclare(
		d.queue,
		true,
		false,
		false,
		false,
		amqp.Table{
			"x-dead-letter-exchange":    dlq + "_exchange",
			"x-dead-letter-routing-key": dlq,
		},
	)
	return err
}

// Enqueue publishes the task as a persistent JSON message.
func (d *AMQPDispatcher) Enqueue(task Task) error {
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return d.channel.PublishWithContext(
		context.Background(),
		"",      // default exchange
		d.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (d *AMQPDispatcher) consume() error {
	msgs, err := d.channel.Consume(
		d.queue,
		"fulfillment-worker", // consumer tag
		false,                // auto-ack
		false,                // exclusive
		false,                // no-local
		false,                // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			d.process(msg)
		}
	}()

	return nil
}

func (d *AMQPDispatcher) process(msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Queue] Recovered from panic in task processing: %v", r)
			_ = msg.Nack(false, false)
		}
	}()

	var task Task
	if err := json.Unmarshal(msg.Body, &task); err != nil {
		log.Printf("[Queue] Malformed task message, dead-lettering: %v", err)
		_ = msg.Nack(false, false)
		return
	}

	if err := d.handler(context.Background(), task); err != nil {
		log.Printf("[Queue] Task %s failed: %v", task.Type, err)
		// Requeue once; a redelivered failure goes to the DLQ.
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}

	_ = msg.Ack(false)
}

// Close shuts down the channel and connection.
func (d *AMQPDispatcher) Close() {
	if err := d.channel.Close(); err != nil {
		log.Printf("[Queue] Channel close: %v", err)
	}
	if err := d.conn.Close(); err != nil {
		log.Printf("[Queue] Connection close: %v", err)
	}
}
