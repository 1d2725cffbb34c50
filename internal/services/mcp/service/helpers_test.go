package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const germanTS = `<?xml version="1.0" encoding="utf-8"?>
<!DOCTYPE TS>
<TS version="2.1" language="de">
<context>
    <name>Main</name>
    <message>
        <source>Open</source>
        <translation>Öffnen</translation>
    </message>
    <message>
        <source>Hello %1</source>
        <translation>Hallo</translation>
    </message>
</context>
</TS>
`

func writeTranslations(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app_de.ts"), []byte(germanTS), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return dir
}

func decodeStructuredContent[T any](t *testing.T, value any) T {
	t.Helper()

	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	var output T
	if err := json.Unmarshal(data, &output); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
	return output
}

// connectClient connects a test client over transport within a second.
func connectClient(t *testing.T, transport mcp.Transport) *mcp.ClientSession {
	t.Helper()

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	type connectResult struct {
		session *mcp.ClientSession
		err     error
	}
	done := make(chan connectResult, 1)
	go func() {
		session, err := client.Connect(ctx, transport, nil)
		done <- connectResult{session: session, err: err}
	}()

	select {
	case result := <-done:
		if result.err != nil {
			t.Fatalf("connect client: %v", result.err)
		}
		return result.session
	case <-time.After(2 * time.Second):
		t.Fatal("connect client timed out")
		return nil
	}
}
