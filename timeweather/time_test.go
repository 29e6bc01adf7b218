package timeweather

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"timeweathermcp/mcp"
)

func TestTimeToolDescriptor(t *testing.T) {
	def := TimeTool()
	desc := def.Descriptor
	if desc.Name != "time_tool" {
		t.Fatalf("name = %q", desc.Name)
	}
	if desc.InputSchema.AdditionalProperties {
		t.Fatal("additionalProperties must be false")
	}
	if _, ok := desc.InputSchema.Properties["input_timezone"]; !ok {
		t.Fatalf("input_timezone property missing: %v", desc.InputSchema.Properties)
	}
	if len(desc.InputSchema.Required) != 0 {
		t.Fatalf("input_timezone must be optional, required = %v", desc.InputSchema.Required)
	}
}

func TestTimeToolWithTimezone(t *testing.T) {
	def := TimeTool()
	res, err := def.Handler(context.Background(), &mcp.CallToolParams{
		Name:      "time_tool",
		Arguments: json.RawMessage(`{"input_timezone":"Asia/Kolkata"}`),
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("result = %+v", res)
	}

	text := res.Content[0].Text
	if !strings.HasPrefix(text, "The current time is ") || !strings.HasSuffix(text, ".") {
		t.Fatalf("text = %q", text)
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(text, "The current time is "), ".")
	parsed, err := time.Parse(timeFormat, stamp)
	if err != nil {
		t.Fatalf("timestamp %q does not match format: %v", stamp, err)
	}
	_, offset := parsed.Zone()
	if want := 5*3600 + 30*60; offset != want {
		t.Fatalf("offset = %d, want %d (Asia/Kolkata)", offset, want)
	}
}

func TestTimeToolDefaultsToLocalZone(t *testing.T) {
	def := TimeTool()
	res, err := def.Handler(context.Background(), &mcp.CallToolParams{Name: "time_tool"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError || !strings.HasPrefix(res.Content[0].Text, "The current time is ") {
		t.Fatalf("result = %+v", res)
	}
}

func TestTimeToolInvalidTimezoneIsToolOutput(t *testing.T) {
	def := TimeTool()
	res, err := def.Handler(context.Background(), &mcp.CallToolParams{
		Name:      "time_tool",
		Arguments: json.RawMessage(`{"input_timezone":"Not/AZone"}`),
	})
	if err != nil {
		t.Fatalf("bad timezone must not be a protocol error: %v", err)
	}
	if !strings.Contains(res.Content[0].Text, "Invalid timezone 'Not/AZone'") {
		t.Fatalf("text = %q", res.Content[0].Text)
	}
}
