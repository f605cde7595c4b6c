package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	// parse command flags
	parseImagePath  string
	parseStage      string
	parseOutputJSON bool
)

func init() {
	parseCmd.Flags().StringVar(&parseImagePath, "image", "", "Parse a photographed note instead of text")
	parseCmd.Flags().StringVar(&parseStage, "stage", "final", "Pipeline stage: text, entities, normalize, or final")
	parseCmd.Flags().BoolVar(&parseOutputJSON, "json", false, "Print the raw JSON response")
}

// parseCmd parses an appointment request through the apptd server
var parseCmd = &cobra.Command{
	Use:   "parse [text]",
	Short: "Parse an appointment request",
	Long: `Parse a free-text or photographed appointment request through the apptd server.

Examples:
  # Parse text
  apptctl parse "Book dentist next Friday at 3pm"

  # Parse from stdin
  echo "Book dentist next Friday at 3pm" | apptctl parse -

  # Parse a photographed note
  apptctl parse --image note.jpg

  # Stop after entity extraction
  apptctl parse --stage entities "Book dentist next Friday at 3pm"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

// ParseRequest matches internal/http ParseRequest
type ParseRequest struct {
	Input    string `json:"input"`
	IsImage  bool   `json:"is_image"`
	MIMEType string `json:"mime_type,omitempty"`
}

// FinalResponse matches internal/http FinalResponse
type FinalResponse struct {
	Status      string `json:"status"`
	Appointment *struct {
		Department string `json:"department"`
		Date       string `json:"date"`
		Time       string `json:"time"`
		Timezone   string `json:"timezone"`
	} `json:"appointment,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// stageEndpoints maps the --stage flag to API paths.
var stageEndpoints = map[string]string{
	"text":      "/api/v1/appointments/extract-text",
	"entities":  "/api/v1/appointments/extract-entities",
	"normalize": "/api/v1/appointments/normalize",
	"final":     "/api/v1/appointments/final",
}

// runParse handles the parse command
func runParse(cmd *cobra.Command, args []string) error {
	endpoint, ok := stageEndpoints[parseStage]
	if !ok {
		return fmt.Errorf("unknown stage %q (want text, entities, normalize, or final)", parseStage)
	}

	req, err := buildParseRequest(args)
	if err != nil {
		return err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Post(serverURL+endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to reach server at %s: %w", serverURL, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if parseOutputJSON || parseStage != "final" {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
			fmt.Println(string(respBody))
			return nil
		}
		fmt.Println(pretty.String())
		return nil
	}

	var final FinalResponse
	if err := json.Unmarshal(respBody, &final); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	printFinal(&final)
	return nil
}

// buildParseRequest assembles the request body from the image flag, a
// positional argument, or stdin.
func buildParseRequest(args []string) (*ParseRequest, error) {
	if parseImagePath != "" {
		data, err := os.ReadFile(parseImagePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read image %s: %w", parseImagePath, err)
		}
		return &ParseRequest{
			Input:    base64.StdEncoding.EncodeToString(data),
			IsImage:  true,
			MIMEType: mimeTypeForImage(parseImagePath),
		}, nil
	}

	var text string
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		text = string(data)
	} else {
		text = args[0]
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no input to parse")
	}
	return &ParseRequest{Input: text}, nil
}

// mimeTypeForImage guesses a MIME type from the file extension.
func mimeTypeForImage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// printFinal renders the final response for humans.
func printFinal(final *FinalResponse) {
	if final.Status == "needs_clarification" {
		fmt.Println("Needs clarification:", final.Reason)
		return
	}
	if final.Appointment == nil {
		fmt.Println("Status:", final.Status)
		return
	}
	fmt.Printf("Department: %s\n", final.Appointment.Department)
	fmt.Printf("Date:       %s\n", final.Appointment.Date)
	fmt.Printf("Time:       %s\n", final.Appointment.Time)
	fmt.Printf("Timezone:   %s\n", final.Appointment.Timezone)
}
