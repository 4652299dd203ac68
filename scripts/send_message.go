package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Publishes one chat message to a channel topic, for trying the ingestion
// pipeline against a local broker:
//
//	go run ./scripts -channel <event id> -text "see you at 7"
func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	_ = godotenv.Load()

	flags := flag.NewFlagSet("send_message", flag.ContinueOnError)
	broker := flags.String("broker", envOr("BROKER_URL", "tcp://localhost:1883"), "MQTT broker URL")
	namespace := flags.String("namespace", envOr("BROKER_NAMESPACE", "TownPass"), "topic namespace")
	channel := flags.String("channel", "", "channel (event) id")
	sender := flags.String("sender", uuid.NewString(), "sender user id")
	text := flags.String("text", "hello", "message text")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if _, err := uuid.Parse(*channel); err != nil {
		fmt.Fprintln(os.Stderr, "-channel must be an event UUID")
		return 2
	}

	payload, err := json.Marshal(map[string]string{"sender": *sender, "text": *text})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode payload: %v\n", err)
		return 1
	}

	client := mqtt.NewClient(mqtt.NewClientOptions().
		AddBroker(*broker).
		SetClientID("sports-meetup-send-" + uuid.NewString()[:8]))

	if token := client.Connect(); !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", *broker, token.Error())
		return 1
	}
	defer client.Disconnect(250)

	topic := *namespace + "/" + *channel
	token := client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		fmt.Fprintf(os.Stderr, "Failed to publish: %v\n", token.Error())
		return 1
	}

	fmt.Printf("Published to %s: %s\n", topic, payload)
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
