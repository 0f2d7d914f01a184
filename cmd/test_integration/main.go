package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Smoke driver for the query facade. Start `gantry serve` against a test
// store first, then run this.

const baseURL = "http://localhost:8080"

func main() {
	fmt.Println("Starting facade smoke test...")

	marker := fmt.Sprintf("smoke-%d", time.Now().Unix())

	// 1. Health
	fmt.Println("1. Checking health...")
	if !sendRequest("GET", "/health", nil) {
		fmt.Println("FAILED: health")
		os.Exit(1)
	}
	fmt.Println("PASSED: health")

	// 2. Write a marker node through the query endpoint
	fmt.Println("2. Creating marker node...")
	create := map[string]interface{}{
		"query":  "CREATE (n:CodebaseNode {GUID: $guid, name: 'smoke', type: 'marker'}) RETURN n.GUID AS guid",
		"params": map[string]interface{}{"guid": marker},
	}
	if !sendRequest("POST", "/query", create) {
		fmt.Println("FAILED: create marker")
		os.Exit(1)
	}
	fmt.Println("PASSED: create marker")

	// 3. Read it back
	fmt.Println("3. Reading marker node...")
	read := map[string]interface{}{
		"query":  "MATCH (n:CodebaseNode {GUID: $guid}) RETURN count(n) AS count",
		"params": map[string]interface{}{"guid": marker},
	}
	if !sendRequest("POST", "/query", read) {
		fmt.Println("FAILED: read marker")
		os.Exit(1)
	}
	fmt.Println("PASSED: read marker")

	// 4. Stats
	fmt.Println("4. Fetching stats...")
	if !sendRequest("GET", "/stats", nil) {
		fmt.Println("FAILED: stats")
		os.Exit(1)
	}
	fmt.Println("PASSED: stats")

	// 5. Cleanup
	fmt.Println("5. Cleaning up...")
	cleanup := map[string]interface{}{
		"query":  "MATCH (n:CodebaseNode {GUID: $guid}) DETACH DELETE n",
		"params": map[string]interface{}{"guid": marker},
	}
	if !sendRequest("POST", "/query", cleanup) {
		fmt.Println("FAILED: cleanup")
		os.Exit(1)
	}
	fmt.Println("PASSED: cleanup")
}

func sendRequest(method, endpoint string, payload interface{}) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response: %s\n", string(respBody))

	return true
}
