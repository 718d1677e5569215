package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// End-to-end smoke check against a running gatesphere-api: OTP login,
// complaint lifecycle, and a read-back through the REST surface.
func main() {
	base := os.Getenv("GATESPHERE_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	client := &http.Client{Timeout: 5 * time.Second}

	if _, err := get(client, base+"/healthz", ""); err != nil {
		log.Fatalf("healthz: %v", err)
	}

	phone := fmt.Sprintf("9%09d", rand.New(rand.NewSource(time.Now().UnixNano())).Intn(1_000_000_000))

	sent, err := post(client, base+"/api/otp/send", "", map[string]any{"phone": phone})
	if err != nil {
		log.Fatalf("otp send: %v", err)
	}
	code, _ := sent["otp"].(string)
	if code == "" {
		log.Fatal("otp send: no code in response")
	}

	societyID := os.Getenv("GATESPHERE_SMOKE_SOCIETY")
	if societyID == "" {
		societyID = "soc-demo"
	}
	verified, err := post(client, base+"/api/otp/verify", "", map[string]any{
		"phone": phone, "code": code, "name": "Smoke Resident", "society_id": societyID,
	})
	if err != nil {
		log.Fatalf("otp verify: %v", err)
	}
	token, _ := verified["token"].(string)
	if token == "" {
		log.Fatal("otp verify: no token in response")
	}

	created, err := post(client, base+"/api/complaints", token, map[string]any{
		"title":       "Smoke check complaint",
		"description": "raised by the smoke client",
		"category":    "maintenance",
	})
	if err != nil {
		log.Fatalf("create complaint: %v", err)
	}
	complaintID, _ := created["id"].(string)
	if created["status"] != "open" || complaintID == "" {
		log.Fatalf("unexpected complaint: %v", created)
	}

	updated, err := patch(client, base+"/api/complaints/"+complaintID, token, map[string]any{
		"status": "in_progress",
	})
	if err != nil {
		log.Fatalf("update complaint: %v", err)
	}
	if updated["status"] != "in_progress" {
		log.Fatalf("complaint did not advance: %v", updated)
	}

	fmt.Printf("smoke test passed: phone=%s complaint=%s\n", phone, complaintID)
}

func get(client *http.Client, url, token string) (map[string]any, error) {
	return request(client, http.MethodGet, url, token, nil)
}

func post(client *http.Client, url, token string, body map[string]any) (map[string]any, error) {
	return request(client, http.MethodPost, url, token, body)
}

func patch(client *http.Client, url, token string, body map[string]any) (map[string]any, error) {
	return request(client, http.MethodPatch, url, token, body)
}

func request(client *http.Client, method, url, token string, body map[string]any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: status %d (%s)", method, url, resp.StatusCode, data)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s %s: decode: %w", method, url, err)
	}
	return out, nil
}
