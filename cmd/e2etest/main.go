package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// E2E Test: register -> login -> create lesson -> enroll -> complete -> achievements
//
// Runs against a live gateway (GATEWAY_URL, default http://localhost:3000) with the
// seeded admin (ADMIN_EMAIL / ADMIN_PASSWORD) and a freshly registered student.

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Success bool            `json:"success"`
	Code    string          `json:"code"`
}

type loginData struct {
	AccessToken string `json:"accessToken"`
	ID          uint   `json:"id"`
	Role        string `json:"role"`
}

type lessonData struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

type userAchievements struct {
	Achievements []struct {
		Achievement struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"achievement"`
	} `json:"achievements"`
	Stats struct {
		TotalPoints       int `json:"totalPoints"`
		TotalAchievements int `json:"totalAchievements"`
	} `json:"stats"`
}

func main() {
	gateway := getenv("GATEWAY_URL", "http://localhost:3000")
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set (seed the admin with cmd/seed user)")
	}

	client := resty.New().
		SetBaseURL(gateway).
		SetTimeout(10 * time.Second).
		SetHeader("Content-Type", "application/json")

	log.Println("══════════════════════════════════════════════════════════════════")
	log.Println("  END-TO-END TEST: Lesson completion → Achievements")
	log.Println("══════════════════════════════════════════════════════════════════")

	log.Println("\n[STEP 1] Checking gateway readiness...")
	if _, err := call(client.R(), "GET", "/readyz", nil); err != nil {
		log.Fatalf("Gateway not ready: %v", err)
	}

	log.Println("\n[STEP 2] Logging in as admin...")
	admin, err := login(client, adminEmail, adminPassword)
	if err != nil {
		log.Fatalf("Admin login failed: %v", err)
	}

	log.Println("\n[STEP 3] Registering a student...")
	email := fmt.Sprintf("e2e-%s@learnhub.dev", uuid.NewString()[:8])
	password := "e2e-password-123"
	if _, err := call(client.R(), "POST", "/users/api/v1/auth/register", map[string]string{
		"email": email, "password": password,
	}); err != nil {
		log.Fatalf("Register failed: %v", err)
	}
	student, err := login(client, email, password)
	if err != nil {
		log.Fatalf("Student login failed: %v", err)
	}
	log.Printf("  Student: %s (ID: %d)", email, student.ID)

	log.Println("\n[STEP 4] Creating a lesson...")
	var lesson lessonData
	if err := callInto(client.R().SetAuthToken(admin.AccessToken), "POST", "/lessons/api/v1/lesson", map[string]interface{}{
		"title": "E2E Fractions", "subject": "MATH", "grade": 5,
	}, &lesson); err != nil {
		log.Fatalf("Create lesson failed: %v", err)
	}
	log.Printf("  Lesson: %s (ID: %d)", lesson.Title, lesson.ID)

	log.Println("\n[STEP 5] Enrolling and completing...")
	for _, action := range []string{"enroll", "complete"} {
		path := fmt.Sprintf("/lessons/api/v1/lesson/%d/%s?userId=%d", lesson.ID, action, student.ID)
		if _, err := call(client.R().SetAuthToken(admin.AccessToken), "POST", path, nil); err != nil {
			log.Fatalf("%s failed: %v", action, err)
		}
	}

	log.Println("\n[STEP 6] Waiting for achievements...")
	path := fmt.Sprintf("/achievements/api/v1/achievement/user/%d", student.ID)
	deadline := time.Now().Add(30 * time.Second)
	for {
		var result userAchievements
		err := callInto(client.R().SetAuthToken(student.AccessToken), "GET", path, nil, &result)
		if err == nil && result.Stats.TotalAchievements >= 2 {
			for _, a := range result.Achievements {
				log.Printf("  ✅ %s (%s)", a.Achievement.Name, a.Achievement.Type)
			}
			log.Printf("  Total points: %d", result.Stats.TotalPoints)
			break
		}
		if time.Now().After(deadline) {
			log.Fatalf("Achievements not awarded in time (last error: %v)", err)
		}
		time.Sleep(time.Second)
	}

	log.Println("\n🎉 END-TO-END TEST PASSED")
}

func login(client *resty.Client, email, password string) (*loginData, error) {
	var data loginData
	err := callInto(client.R(), "POST", "/users/api/v1/auth/login", map[string]string{
		"email": email, "password": password,
	}, &data)
	if err != nil {
		return nil, err
	}
	if data.AccessToken == "" {
		return nil, errors.New("login returned no access token")
	}
	return &data, nil
}

func call(req *resty.Request, method, path string, body interface{}) (*envelope, error) {
	var env envelope
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.SetResult(&env).SetError(&env).Execute(method, path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return &env, fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode(), env.Message)
	}
	return &env, nil
}

func callInto(req *resty.Request, method, path string, body, dest interface{}) error {
	env, err := call(req, method, path, body)
	if err != nil {
		return err
	}
	return json.Unmarshal(env.Data, dest)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
