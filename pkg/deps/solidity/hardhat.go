package solidity

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/drips-network/gardener/pkg/deps"
	"github.com/drips-network/gardener/pkg/errors"
)

// HelperTimeout bounds one run of the Hardhat remapping helper.
const HelperTimeout = 60 * time.Second

var hardhatConfigs = []string{"hardhat.config.ts", "hardhat.config.js", "hardhat.config.cjs", "hardhat.config.mjs"}

func hasHardhatConfig(p *deps.Project) bool {
	for _, name := range hardhatConfigs {
		if p.Has(name) {
			return true
		}
		if _, err := p.ReadFile(name); err == nil {
			return true
		}
	}
	return false
}

// hardhatRemappings runs the helper command with the repository root as its
// last argument. The helper prints a JSON object mapping prefixes to
// directories; targets outside root are dropped.
func hardhatRemappings(ctx context.Context, command []string, root string) ([]Remapping, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "remapping helper command is empty")
	}
	bin, err := exec.LookPath(command[0])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "remapping helper %q not found", command[0])
	}
	runCtx, cancel := context.WithTimeout(ctx, HelperTimeout)
	defer cancel()

	args := append(append([]string(nil), command[1:]...), root)
	cmd := exec.CommandContext(runCtx, bin, args...)
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if err := cmd.Run(); err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, errors.Wrap(errors.ErrCodeCancelled, ctx.Err(), "remapping helper")
		case runCtx.Err() != nil:
			return nil, errors.Wrap(errors.ErrCodeTimeout, runCtx.Err(), "remapping helper timed out after %s", HelperTimeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "remapping helper failed: %s", msg)
	}
	return decodeHelperOutput(stdout.Bytes(), root)
}

func decodeHelperOutput(data []byte, root string) ([]Remapping, error) {
	var raw map[string]string
	if err := json.Unmarshal(bytes.TrimSpace(data), &raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "remapping helper printed invalid JSON")
	}
	var out []Remapping
	for _, prefix := range sortedKeys(raw) {
		target := raw[prefix]
		if filepath.IsAbs(target) {
			rel, err := filepath.Rel(root, target)
			if err != nil {
				continue
			}
			target = rel
		}
		target = filepath.ToSlash(filepath.Clean(target))
		if target == ".." || strings.HasPrefix(target, "../") {
			continue
		}
		if strings.HasSuffix(raw[prefix], "/") && target != "." {
			target += "/"
		}
		out = append(out, Remapping{Prefix: prefix, Target: target, Dir: "."})
	}
	return out, nil
}
