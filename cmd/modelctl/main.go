// Command modelctl is a thin client for the model conversion service.
package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const defaultService = "http://localhost:8080"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "convert":
		runConvertCmd(args)
	case "conversions":
		runConversionsCmd(args)
	case "presets":
		runPresetsCmd(args)
	case "health":
		runHealthCmd(args)
	case "watch":
		runWatchCmd(args)
	default:
		usage()
		os.Exit(1)
	}
}

func runConvertCmd(args []string) {
	fs := newFlagSet("convert")
	file := fs.String("file", "", "local model file to upload")
	url := fs.String("url", "", "github or huggingface url")
	src := fs.String("source", "", "source kind: upload, github, huggingface")
	token := fs.String("token", envOr("MODELCTL_TOKEN", ""), "source credential")
	name := fs.String("name", "", "model name")
	preset := fs.String("preset", "", "conversion preset")
	params := fs.String("params", "", "comma-separated key=value overrides")
	fs.ParseArgs(args)

	req := map[string]any{
		"source": *src,
		"name":   *name,
	}
	switch {
	case *file != "":
		if *src == "" {
			req["source"] = "upload"
		}
		// #nosec G304 -- CLI explicitly reads local files provided by the operator.
		data, err := os.ReadFile(*file)
		check(err)
		req["content_base64"] = base64.StdEncoding.EncodeToString(data)
	case *url != "":
		if *src == "" {
			fail("--source required with --url")
		}
		req["url"] = *url
		req["token"] = *token
	default:
		fail("either --file or --url is required")
	}
	if *preset != "" {
		req["preset"] = *preset
	}
	if *params != "" {
		req["parameters"] = parseParams(*params)
	}

	var resp map[string]any
	postJSON(*fs.service, "/api/v1/convert", req, &resp)
	printJSON(resp)
}

func runConversionsCmd(args []string) {
	fs := newFlagSet("conversions")
	limit := fs.Int("limit", 20, "max records to list")
	fs.ParseArgs(args)

	var resp map[string]any
	getJSON(*fs.service, fmt.Sprintf("/api/v1/conversions?limit=%d", *limit), &resp)
	printJSON(resp)
}

func runPresetsCmd(args []string) {
	fs := newFlagSet("presets")
	fs.ParseArgs(args)

	var resp map[string]any
	getJSON(*fs.service, "/api/v1/presets", &resp)
	printJSON(resp)
}

func runHealthCmd(args []string) {
	fs := newFlagSet("health")
	fs.ParseArgs(args)

	var resp map[string]any
	getJSON(*fs.service, "/health", &resp)
	printJSON(resp)
}

func runWatchCmd(args []string) {
	fs := newFlagSet("watch")
	fs.ParseArgs(args)

	wsURL := strings.Replace(strings.TrimRight(*fs.service, "/"), "http", "ws", 1) + "/api/v1/events"
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	cancel()
	if resp != nil {
		_ = resp.Body.Close()
	}
	check(err)
	defer conn.Close()

	for {
		var evt map[string]any
		if err := conn.ReadJSON(&evt); err != nil {
			fail(err.Error())
		}
		printJSON(evt)
	}
}

type flagSet struct {
	*flag.FlagSet
	service *string
}

func newFlagSet(name string) *flagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	service := fs.String("service", envOr("MODELCTL_SERVICE", defaultService), "service base url")
	return &flagSet{FlagSet: fs, service: service}
}

func (fs *flagSet) ParseArgs(args []string) {
	if err := fs.Parse(args); err != nil {
		fail(err.Error())
	}
}

// parseParams splits "k=v,k2=v2" into a parameter map.
func parseParams(raw string) map[string]string {
	out := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			fail(fmt.Sprintf("invalid parameter %q, want key=value", pair))
		}
		out[k] = v
	}
	return out
}

func getJSON(base, path string, out any) {
	resp, err := http.Get(strings.TrimRight(base, "/") + path)
	check(err)
	decodeResponse(resp, out)
}

func postJSON(base, path string, payload, out any) {
	body, err := json.Marshal(payload)
	check(err)
	resp, err := http.Post(strings.TrimRight(base, "/")+path, "application/json", bytes.NewReader(body))
	check(err)
	decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	check(err)
	if resp.StatusCode >= 400 {
		fail(fmt.Sprintf("%s: %s", resp.Status, strings.TrimSpace(string(data))))
	}
	if err := json.Unmarshal(data, out); err != nil {
		fail(fmt.Sprintf("invalid response: %v", err))
	}
}

func printJSON(value any) {
	data, err := json.MarshalIndent(value, "", "  ")
	check(err)
	fmt.Println(string(data))
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func check(err error) {
	if err != nil {
		fail(err.Error())
	}
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, "error:", msg)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: modelctl <command> [flags]

commands:
  convert      submit a model for conversion (--file or --url + --source)
  conversions  list recent conversions
  presets      list conversion presets
  health       check service health
  watch        stream pipeline events

common flags:
  --service    service base url (env MODELCTL_SERVICE, default http://localhost:8080)`)
}
