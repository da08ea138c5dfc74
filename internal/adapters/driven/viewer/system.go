// Package viewer implements driven.Viewer for the desktop and the terminal.
package viewer

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/custodia-labs/cortex-cli/internal/core/domain"
	"github.com/custodia-labs/cortex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/cortex-cli/internal/logger"
)

// Ensure System implements the interface.
var _ driven.Viewer = (*System)(nil)

// Operating system identifiers.
const (
	osDarwin  = "darwin"
	osLinux   = "linux"
	osWindows = "windows"
)

// Command placeholders.
const (
	placeholderPath = "{path}"
	placeholderPage = "{page}"
)

// System opens documents with an external program. Without a command
// template the platform's default opener is used, which cannot jump to a
// page.
type System struct {
	command string
	goos    string
	start   func(ctx context.Context, name string, args ...string) error
}

// NewSystem creates a system viewer. command may contain {path} and
// {page}, e.g. "zathura --page={page} {path}".
func NewSystem(command string) *System {
	return &System{
		command: strings.TrimSpace(command),
		goos:    runtime.GOOS,
		start:   startDetached,
	}
}

// Show opens the content at the target page.
func (v *System) Show(ctx context.Context, target domain.NavigationTarget, content domain.ContentHandle) error {
	if content.Path == "" {
		return fmt.Errorf("no local file for %s: %w", target.DocumentID, domain.ErrInvalidInput)
	}
	name, args, err := v.argv(content.Path, target.Page)
	if err != nil {
		return err
	}
	logger.Debug("viewer: %s %s", name, strings.Join(args, " "))
	return v.start(ctx, name, args...)
}

func (v *System) argv(path string, page int) (string, []string, error) {
	if v.command != "" {
		fields := strings.Fields(v.command)
		hasPath := false
		for i, f := range fields {
			if strings.Contains(f, placeholderPath) {
				hasPath = true
			}
			f = strings.ReplaceAll(f, placeholderPath, path)
			fields[i] = strings.ReplaceAll(f, placeholderPage, strconv.Itoa(page))
		}
		if !hasPath {
			fields = append(fields, path)
		}
		return fields[0], fields[1:], nil
	}

	switch v.goos {
	case osDarwin:
		return "open", []string{path}, nil
	case osLinux:
		return "xdg-open", []string{path}, nil
	case osWindows:
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", v.goos)
	}
}

// startDetached starts the program without waiting for it to exit.
func startDetached(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
