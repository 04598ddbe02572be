// Command keyboard is a selection plugin that presses a key when its bound
// target is selected. It uses osascript on macOS and xdotool on Linux.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

type request struct {
	Action     string          `json:"action"`
	TargetID   int             `json:"target_id"`
	Label      string          `json:"label"`
	SelectedAt time.Time       `json:"selected_at"`
	Params     json.RawMessage `json:"params"`
}

type response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type pressParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"`
}

var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

var xdoModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	var req request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		reply(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	if req.Action != "press" {
		reply(fmt.Errorf("unknown action: %s", req.Action))
		return
	}

	var p pressParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		reply(fmt.Errorf("failed to parse params: %w", err))
		return
	}
	reply(press(p))
}

func press(p pressParams) error {
	if p.Key == "" {
		return errors.New("key is required")
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("osascript", "-e", appleScript(p))
	case "linux":
		cmd = exec.Command("xdotool", "key", xdoChord(p))
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}

	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, out)
	}
	return nil
}

func appleScript(p pressParams) string {
	var mods []string
	for _, m := range p.Modifiers {
		if am, ok := appleModifiers[strings.ToLower(m)]; ok {
			mods = append(mods, am)
		}
	}
	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke %q`, p.Key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke %q using {%s}`, p.Key, strings.Join(mods, ", "))
}

func xdoChord(p pressParams) string {
	parts := make([]string, 0, len(p.Modifiers)+1)
	for _, m := range p.Modifiers {
		if xm, ok := xdoModifiers[strings.ToLower(m)]; ok {
			parts = append(parts, xm)
		}
	}
	return strings.Join(append(parts, p.Key), "+")
}

func reply(err error) {
	resp := response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
