// Command smoke drives a running server through the core attendance flow:
// login, eligibility, mark, repeat mark, admin summary. It prints one line
// per step and exits non-zero on the first unexpected status.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

type step struct {
	name       string
	method     string
	path       string
	body       any
	wantStatus []int
	admin      bool
}

func main() {
	base := flag.String("base", "http://localhost:8080/api/v1", "API base URL")
	roll := flag.String("roll", "1", "student roll number")
	password := flag.String("password", "pass1", "student password")
	adminLogin := flag.String("admin", "admin", "admin login")
	adminPassword := flag.String("admin-password", "admin123", "admin password")
	subject := flag.String("subject", "Mathematics", "subject to mark")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	studentToken, err := login(client, *base, *roll, *password)
	if err != nil {
		fail("student login", err)
	}
	adminToken, err := login(client, *base, *adminLogin, *adminPassword)
	if err != nil {
		fail("admin login", err)
	}

	steps := []step{
		{name: "eligibility", method: http.MethodGet, path: "/attendance/eligibility/" + *subject, wantStatus: []int{200}},
		{name: "today", method: http.MethodGet, path: "/attendance/today", wantStatus: []int{200}},
		{name: "mark", method: http.MethodPost, path: "/attendance/mark", body: map[string]string{"subject": *subject}, wantStatus: []int{201, 409, 412}},
		{name: "mark repeat", method: http.MethodPost, path: "/attendance/mark", body: map[string]string{"subject": *subject}, wantStatus: []int{409, 412}},
		{name: "summary", method: http.MethodGet, path: "/admin/summary", wantStatus: []int{200}, admin: true},
		{name: "records", method: http.MethodGet, path: "/admin/records", wantStatus: []int{200}, admin: true},
	}

	for _, s := range steps {
		token := studentToken
		if s.admin {
			token = adminToken
		}
		status, err := run(client, *base, s, token)
		if err != nil {
			fail(s.name, err)
		}
		ok := false
		for _, want := range s.wantStatus {
			if status == want {
				ok = true
				break
			}
		}
		if !ok {
			fail(s.name, fmt.Errorf("unexpected status %d", status))
		}
		fmt.Printf("ok   %-12s %d\n", s.name, status)
	}
	fmt.Println("smoke passed")
}

func login(client *http.Client, base, roll, password string) (string, error) {
	payload, _ := json.Marshal(map[string]string{"roll_number": roll, "password": password})
	resp, err := client.Post(base+"/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login status %d: %s", resp.StatusCode, raw)
	}
	var body struct {
		Data struct {
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	return body.Data.AccessToken, nil
}

func run(client *http.Client, base string, s step, token string) (int, error) {
	var reader io.Reader
	if s.body != nil {
		payload, err := json.Marshal(s.body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(s.method, base+s.path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if s.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func fail(name string, err error) {
	fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", name, err)
	os.Exit(1)
}
