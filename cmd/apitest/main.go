// Command apitest runs smoke checks against a live Gatherings API server.
//
// Usage:
//
//	go run ./cmd/apitest -url http://localhost:8080 -key $API_KEY
//
// It creates a temporary gathering, exercises the read endpoints against it
// and deletes it again.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status string `json:"status"`
}

// RuleResponse is the response for the /rules endpoints.
type RuleResponse struct {
	Valid      bool   `json:"valid"`
	Expression string `json:"expression"`
	Sentence   string `json:"sentence"`
}

// OccurrencesResponse is the response for the occurrence endpoints.
type OccurrencesResponse struct {
	Sentence    string `json:"sentence"`
	Occurrences []struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	} `json:"occurrences"`
}

// Gathering is the stored gathering as returned by the API.
type Gathering struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL, apiKey string, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Println("==============================================")
	fmt.Println("Gatherings API Smoke Test")
	fmt.Println("==============================================")
	fmt.Printf("Base URL: %s\n", tr.baseURL)
	fmt.Println()

	tr.testHealth()
	tr.testRules()
	tr.testRuleErrors()
	tr.testReferenceData()
	tr.testGatheringLifecycle()

	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if _, err := tr.call("GET", "/health", nil, &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health.Status == "healthy" {
		tr.recordSuccess("Health check passed")
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testRules() {
	tr.printSection("Rule Endpoints")

	testCases := []struct {
		description string
		rule        map[string]any
		sentence    string
		firstEnd    string
	}{
		{"Saturday before first Sunday in May", map[string]any{"kind": "nthDay", "month": 5, "byday": "1SU", "offset": "-1SA"}, "The Saturday before the first Sunday in May", "2021-05-01"},
		{"Last Saturday in May", map[string]any{"kind": "lastDay", "month": 5, "weekday": "SA"}, "The last Saturday in May", "2021-05-29"},
		{"Fourth Thursday in November", map[string]any{"kind": "nthDay", "month": 11, "byday": "4TH"}, "The fourth Thursday in November", "2021-11-25"},
		{"Easter", map[string]any{"kind": "special", "special": "easter"}, "Easter", "2021-04-04"},
		{"Sunday before Christmas", map[string]any{"kind": "special", "special": "christmas", "offset": "-1SU"}, "The Sunday before Christmas Day", "2021-12-19"},
	}

	for _, tc := range testCases {
		var sentence RuleResponse
		if _, err := tr.call("POST", "/api/v1/rules/sentence", map[string]any{"rule": tc.rule}, &sentence); err != nil {
			tr.recordError(tc.description, err.Error())
			continue
		}
		if sentence.Sentence != tc.sentence {
			tr.recordError(tc.description, fmt.Sprintf("sentence %q, want %q", sentence.Sentence, tc.sentence))
			continue
		}

		var occs OccurrencesResponse
		body := map[string]any{"rule": tc.rule, "count": 3, "start": "2021-01-01"}
		if _, err := tr.call("POST", "/api/v1/rules/occurrences", body, &occs); err != nil {
			tr.recordError(tc.description, err.Error())
			continue
		}
		if len(occs.Occurrences) != 3 || occs.Occurrences[0].End.Format(time.DateOnly) != tc.firstEnd {
			tr.recordError(tc.description, fmt.Sprintf("occurrences %v, want first %s", occs.Occurrences, tc.firstEnd))
			continue
		}

		tr.recordSuccess(fmt.Sprintf("%s: %s", tc.description, tc.firstEnd))
		if tr.verbose {
			for _, o := range occs.Occurrences {
				fmt.Printf("      %s\n", o.End.Format(time.DateOnly))
			}
		}
	}

	var inferred RuleResponse
	if _, err := tr.call("GET", "/api/v1/rules/infer?date=2021-05-01&weekday=SU", nil, &inferred); err != nil {
		tr.recordError("Infer", err.Error())
	} else if inferred.Sentence != "The Saturday before the first Sunday in May" {
		tr.recordError("Infer", fmt.Sprintf("sentence %q", inferred.Sentence))
	} else {
		tr.recordSuccess("Infer 2021-05-01 with reference Sunday")
	}
}

func (tr *TestRunner) testRuleErrors() {
	tr.printSection("Rule Errors")

	testCases := []struct {
		description string
		method      string
		path        string
		body        any
		status      int
		code        string
	}{
		{"Fifth ordinal", "POST", "/api/v1/rules/validate", map[string]any{"rule": map[string]any{"kind": "nthDay", "month": 5, "byday": "5SU"}}, 400, "INVALID_RULE"},
		{"Easter expression", "POST", "/api/v1/rules/expression", map[string]any{"rule": map[string]any{"kind": "special", "special": "easter"}}, 422, "UNSUPPORTED"},
		{"Fifth Sunday sample", "GET", "/api/v1/rules/infer?date=2021-05-30", nil, 422, "TEMPORAL_PRECONDITION"},
		{"Missing bound", "POST", "/api/v1/rules/occurrences", map[string]any{"rule": map[string]any{"kind": "special", "special": "newYear"}}, 400, "BAD_REQUEST"},
	}

	for _, tc := range testCases {
		resp, status, err := tr.do(tc.method, tc.path, tc.body)
		if err != nil {
			tr.recordError(tc.description, err.Error())
			continue
		}
		if status != tc.status || resp.Error == nil || resp.Error.Code != tc.code {
			tr.recordError(tc.description, fmt.Sprintf("HTTP %d %+v, want %d %s", status, resp.Error, tc.status, tc.code))
			continue
		}
		tr.recordSuccess(fmt.Sprintf("%s rejected with %s", tc.description, tc.code))
	}
}

func (tr *TestRunner) testReferenceData() {
	tr.printSection("Reference Data")

	var days []map[string]any
	if _, err := tr.call("GET", "/api/v1/special-days", nil, &days); err != nil {
		tr.recordError("Special days", err.Error())
	} else {
		tr.recordSuccess(fmt.Sprintf("%d special days", len(days)))
	}

	var holidays struct {
		Holidays []map[string]any `json:"holidays"`
	}
	if _, err := tr.call("GET", "/api/v1/holidays/2025", nil, &holidays); err != nil {
		tr.recordError("Holidays", err.Error())
	} else {
		tr.recordSuccess(fmt.Sprintf("%d holidays in 2025", len(holidays.Holidays)))
	}
}

func (tr *TestRunner) testGatheringLifecycle() {
	tr.printSection("Gathering Lifecycle")

	slug := "smoke-" + uuid.NewString()[:8]
	var created Gathering
	body := map[string]any{
		"slug": slug,
		"name": "Smoke Test Reunion",
		"rule": map[string]any{"kind": "nthDay", "month": 5, "byday": "1SU", "offset": "-1SA"},
	}
	if _, err := tr.call("POST", "/api/v1/gatherings", body, &created); err != nil {
		tr.recordError("Create", err.Error())
		return
	}
	tr.recordSuccess(fmt.Sprintf("Created gathering %d (%s)", created.ID, created.Slug))

	defer func() {
		if _, err := tr.call("DELETE", "/api/v1/gatherings/"+slug, nil, nil); err != nil {
			tr.recordError("Delete", err.Error())
			return
		}
		tr.recordSuccess("Deleted gathering")
	}()

	var occs OccurrencesResponse
	if _, err := tr.call("GET", "/api/v1/gatherings/"+slug+"/occurrences?count=2&start=2021-01-01", nil, &occs); err != nil {
		tr.recordError("Occurrences", err.Error())
	} else if len(occs.Occurrences) != 2 {
		tr.recordError("Occurrences", fmt.Sprintf("got %d, want 2", len(occs.Occurrences)))
	} else {
		tr.recordSuccess("Gathering occurrences")
	}

	resp, err := tr.getRaw("/api/v1/gatherings/" + slug + "/calendar.ics")
	if err != nil {
		tr.recordError("Calendar", err.Error())
		return
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !bytes.Contains(data, []byte("BEGIN:VCALENDAR")) {
		tr.recordError("Calendar", fmt.Sprintf("HTTP %d", resp.StatusCode))
	} else {
		tr.recordSuccess(fmt.Sprintf("Calendar feed (%d bytes)", len(data)))
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

// do sends a JSON request and decodes the envelope, whatever the status.
func (tr *TestRunner) do(method, path string, body any) (*APIResponse, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("marshal error: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, tr.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if tr.apiKey != "" {
		req.Header.Set("X-API-Key", tr.apiKey)
	}

	resp, err := tr.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode error: %w", err)
	}
	return &apiResp, resp.StatusCode, nil
}

// call sends a request that must succeed and decodes its data into target.
func (tr *TestRunner) call(method, path string, body, target any) (*APIResponse, error) {
	apiResp, status, err := tr.do(method, path, body)
	if err != nil {
		return nil, err
	}

	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return nil, fmt.Errorf("API error (HTTP %d): %s", status, errMsg)
	}

	if target != nil {
		if err := json.Unmarshal(apiResp.Data, target); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
	}
	return apiResp, nil
}

func (tr *TestRunner) getRaw(path string) (*http.Response, error) {
	return tr.client.Get(tr.baseURL + path)
}

func (tr *TestRunner) printSection(name string) {
	fmt.Println()
	fmt.Printf("--- %s ---\n", name)
	fmt.Println()
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Printf("  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Printf("  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Println()
	fmt.Println("==============================================")
	fmt.Println("Summary")
	fmt.Println("==============================================")
	fmt.Printf("  Passed: %d\n", tr.successCount)
	fmt.Printf("  Failed: %d\n", tr.errorCount)
	fmt.Println()

	if tr.errorCount > 0 {
		fmt.Println("Failures:")
		for _, err := range tr.errors {
			fmt.Printf("  • %s\n", err)
		}
		fmt.Println()
	}

	if tr.errorCount == 0 {
		fmt.Println("All tests passed! ✓")
	} else {
		fmt.Printf("Tests completed with %d failure(s)\n", tr.errorCount)
	}
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	apiKey := flag.String("key", os.Getenv("API_KEY"), "API key for mutating endpoints")
	verbose := flag.Bool("v", false, "Verbose output (show occurrence dates)")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, *apiKey, *verbose)
	runner.Run()

	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
