// Command shadow_compare replays read-only portal requests against both the
// legacy portal backend and this API and reports response differences. It is
// a migration aid, not part of the served binary.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

// defaultTargets covers the portal's read surface. Mutating routes are
// deliberately absent; replaying them would double-write.
var defaultTargets = []target{
	{Method: "GET", Path: "/api/v1/schedule", Critical: true},
	{Method: "GET", Path: "/api/v1/teachers", Critical: true},
	{Method: "GET", Path: "/api/v1/leave-requests", Critical: true},
	{Method: "GET", Path: "/api/v1/leave-requests?status=PENDING", Critical: true},
	{Method: "GET", Path: "/api/v1/announcements", Critical: true},
	{Method: "GET", Path: "/api/v1/dashboard/admin", Critical: false},
	{Method: "GET", Path: "/health", Critical: false},
}

// volatileKeys differ across backends by construction and are stripped
// before comparing bodies.
var volatileKeys = map[string]struct{}{
	"generated_at": {},
	"request_id":   {},
	"created_at":   {},
	"updated_at":   {},
}

type outcome struct {
	target       target
	newStatus    int
	legacyStatus int
	statusMatch  bool
	bodyMatch    bool
	err          error
}

func main() {
	var (
		newBase    string
		legacyBase string
		targetFile string
		token      string
		timeout    time.Duration
	)
	flag.StringVar(&newBase, "new-base", "http://localhost:8080", "campus-portal-api base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:3000", "legacy portal base URL")
	flag.StringVar(&targetFile, "targets", "", "optional JSON file overriding the built-in target list")
	flag.StringVar(&token, "token", os.Getenv("SHADOW_TOKEN"), "bearer token sent to both backends")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "per-request timeout")
	flag.Parse()

	targets := defaultTargets
	if targetFile != "" {
		loaded, err := loadTargets(targetFile)
		if err != nil {
			log.Fatalf("load targets: %v", err)
		}
		targets = loaded
	}

	client := &http.Client{Timeout: timeout}
	breaking := 0
	for _, tgt := range targets {
		res := compare(client, newBase, legacyBase, token, tgt)
		report(res)
		if tgt.Critical && (res.err != nil || !res.statusMatch || !res.bodyMatch) {
			breaking++
		}
	}

	fmt.Printf("\n%d breaking difference(s)\n", breaking)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var targets []target
	if err := json.Unmarshal(data, &targets); err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no targets in %s", path)
	}
	return targets, nil
}

func compare(client *http.Client, newBase, legacyBase, token string, tgt target) outcome {
	res := outcome{target: tgt}

	newStatus, newBody, err := fetch(client, newBase, token, tgt)
	if err != nil {
		res.err = fmt.Errorf("new backend: %w", err)
		return res
	}
	legacyStatus, legacyBody, err := fetch(client, legacyBase, token, tgt)
	if err != nil {
		res.err = fmt.Errorf("legacy backend: %w", err)
		return res
	}

	res.newStatus = newStatus
	res.legacyStatus = legacyStatus
	res.statusMatch = newStatus == legacyStatus
	res.bodyMatch = bodiesEqual(newBody, legacyBody)
	return res
}

func fetch(client *http.Client, base, token string, tgt target) (int, []byte, error) {
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	url := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(tgt.Path, "/")

	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		return 0, nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var av, bv interface{}
	if json.Unmarshal(a, &av) != nil || json.Unmarshal(b, &bv) != nil {
		return false
	}
	scrub(&av)
	scrub(&bv)
	return reflect.DeepEqual(av, bv)
}

// scrub drops volatile fields and folds whole-number floats so the two
// backends' JSON encoders compare equal.
func scrub(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k := range val {
			if _, volatile := volatileKeys[k]; volatile {
				delete(val, k)
			}
		}
		for k, child := range val {
			scrub(&child)
			val[k] = child
		}
	case []interface{}:
		for i, child := range val {
			scrub(&child)
			val[i] = child
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func report(res outcome) {
	label := "OK"
	switch {
	case res.err != nil:
		label = "ERROR"
	case !res.statusMatch || !res.bodyMatch:
		label = "DIFF"
	}
	fmt.Printf("[%s] %s %s\n", label, res.target.Method, res.target.Path)
	if res.err != nil {
		fmt.Printf("  %v\n", res.err)
		return
	}
	fmt.Printf("  status %d vs %d | body match: %t\n", res.newStatus, res.legacyStatus, res.bodyMatch)
}
