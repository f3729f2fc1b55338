package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

func (s *shell) printHealth() {
	fmt.Printf("  %s%sHealth%s\n", Bold, White, Reset)

	endpoints := []struct {
		name string
		url  string
	}{
		{"user-service", s.userAPI + "/health"},
		{"notification", s.notificationAPI + "/health"},
	}

	client := http.Client{Timeout: 2 * time.Second}
	for _, ep := range endpoints {
		resp, err := client.Get(ep.url)
		if err != nil {
			fmt.Printf("  %s[-]%s %-14s %soffline%s\n", Red, Reset, ep.name, Red, Reset)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			fmt.Printf("  %s[!]%s %-14s %sdegraded (%d)%s\n", Yellow, Reset, ep.name, Yellow, resp.StatusCode, Reset)
			continue
		}
		fmt.Printf("  %s[+]%s %-14s %sok%s\n", Green, Reset, ep.name, Green, Reset)
	}
}

func (s *shell) printQueues() {
	fmt.Printf("  %s%sRabbitMQ Queues%s\n", Bold, White, Reset)

	output := strings.TrimSpace(runCmd("docker", "exec", s.rabbitContainer,
		"rabbitmqctl", "list_queues", "name", "messages", "consumers", "--quiet"))

	if output == "" {
		fmt.Printf("  %s[-] rabbitmq not reachable%s\n", Dim, Reset)
		return
	}

	fmt.Printf("  %s%-35s %8s %10s%s\n", Dim, "QUEUE", "MSGS", "CONSUMERS", Reset)
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		color := Green
		if fields[1] != "0" {
			color = Yellow
		}
		if strings.HasSuffix(fields[0], ".dlq") && fields[1] != "0" {
			color = Red
		}
		fmt.Printf("  %s%-35s %s%8s%s %10s\n", Dim, fields[0], color, fields[1], Reset, fields[2])
	}
}
