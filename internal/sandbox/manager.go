package sandbox

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"spawn/internal/store"
)

// ErrNoSandbox is returned by Mirror when the project has no bound sandbox.
var ErrNoSandbox = errors.New("no sandbox bound")

// Manager reconciles a project's sandbox binding with the file store.
//
// Per project the binding is in one of three states, evaluated on every
// sandbox-needing operation:
//
//   - unbound: no stored handle; provision, bind, hydrate everything.
//   - bound and reachable: reattach, extend lifetime, leave files alone.
//   - bound but unreachable: fall back to the unbound path with a new handle.
type Manager struct {
	store    *store.Store
	provider Provider
	logger   *zap.Logger
	ttl      time.Duration
	devPort  int

	// group collapses concurrent reconciles for the same project so the
	// sandbox handle has a single writer.
	group singleflight.Group
}

// NewManager creates a sandbox manager.
func NewManager(st *store.Store, provider Provider, ttl time.Duration, devPort int, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	if devPort == 0 {
		devPort = 5173
	}
	return &Manager{
		store:    st,
		provider: provider,
		logger:   logger,
		ttl:      ttl,
		devPort:  devPort,
	}
}

// Ensure guarantees a runnable sandbox exists for the project and returns its
// externally reachable dev server address. Safe to call repeatedly: a
// reachable sandbox is never rehydrated.
func (m *Manager) Ensure(ctx context.Context, projectID string) (string, error) {
	host, err, _ := m.group.Do(projectID, func() (any, error) {
		return m.reconcile(ctx, projectID)
	})
	if err != nil {
		return "", err
	}
	return host.(string), nil
}

// Heartbeat re-asserts the sandbox lifetime, transparently re-provisioning a
// dead one. It returns a reachable address either way; the caller only sees
// an error when provisioning itself fails.
func (m *Manager) Heartbeat(ctx context.Context, projectID string) (string, error) {
	return m.Ensure(ctx, projectID)
}

func (m *Manager) reconcile(ctx context.Context, projectID string) (string, error) {
	project, err := m.store.GetProject(ctx, projectID)
	if err != nil {
		return "", err
	}

	if project.SandboxID != "" {
		inst, err := m.provider.Connect(ctx, project.SandboxID)
		if err == nil {
			if err := inst.SetTimeout(ctx, m.ttl); err != nil {
				m.logger.Warn("failed to extend sandbox lifetime",
					zap.String("project", projectID), zap.Error(err))
			}
			// Guarded so repeated reconciles don't stack dev servers.
			if err := inst.RunCommand(ctx, "pgrep -f vite >/dev/null 2>&1 || npm run dev", true); err != nil {
				m.logger.Warn("failed to ensure dev server",
					zap.String("project", projectID), zap.Error(err))
			}
			m.logger.Debug("sandbox reachable, reusing",
				zap.String("project", projectID), zap.String("sandbox", project.SandboxID))
			return inst.Host(m.devPort), nil
		}
		m.logger.Info("sandbox unreachable, re-provisioning",
			zap.String("project", projectID),
			zap.String("sandbox", project.SandboxID),
			zap.Error(err))
	}

	return m.provision(ctx, projectID)
}

// provision creates a fresh sandbox, binds its handle to the project, and
// rebuilds the full filesystem from the file store.
func (m *Manager) provision(ctx context.Context, projectID string) (string, error) {
	inst, err := m.provider.Create(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to provision sandbox: %w", err)
	}

	if err := m.store.SetSandboxID(ctx, projectID, inst.ID()); err != nil {
		return "", err
	}

	if err := m.hydrate(ctx, projectID, inst); err != nil {
		return "", err
	}

	if err := inst.SetTimeout(ctx, m.ttl); err != nil {
		m.logger.Warn("failed to set sandbox lifetime", zap.Error(err))
	}
	if err := inst.RunCommand(ctx, "npm install", false); err != nil {
		return "", fmt.Errorf("npm install failed: %w", err)
	}
	if err := inst.RunCommand(ctx, "npm run dev", true); err != nil {
		return "", fmt.Errorf("failed to start dev server: %w", err)
	}

	m.logger.Info("sandbox provisioned",
		zap.String("project", projectID), zap.String("sandbox", inst.ID()))
	return inst.Host(m.devPort), nil
}

// hydrate writes every file row onto the sandbox filesystem, creating all
// ancestor directories first, shortest path first so parents always precede
// children.
func (m *Manager) hydrate(ctx context.Context, projectID string, inst Instance) error {
	files, err := m.store.ListFiles(ctx, projectID)
	if err != nil {
		return err
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	for _, dir := range ancestorDirs(paths) {
		if err := inst.MkdirAll(ctx, dir); err != nil {
			// Already-existing directories are expected, not fatal.
			m.logger.Debug("mkdir failed, continuing",
				zap.String("dir", dir), zap.Error(err))
		}
	}

	for _, f := range files {
		if err := inst.WriteFile(ctx, f.Path, f.Content); err != nil {
			return fmt.Errorf("failed to hydrate %s: %w", f.Path, err)
		}
	}

	m.logger.Debug("sandbox hydrated",
		zap.String("project", projectID), zap.Int("files", len(files)))
	return nil
}

// Mirror writes one file onto the project's live sandbox, creating
// intermediate directories first. Returns ErrNoSandbox when the project has
// no bound handle; connection failures propagate for the caller to soften.
func (m *Manager) Mirror(ctx context.Context, projectID, filePath, content string) error {
	project, err := m.store.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if project.SandboxID == "" {
		return ErrNoSandbox
	}

	inst, err := m.provider.Connect(ctx, project.SandboxID)
	if err != nil {
		return fmt.Errorf("sandbox unreachable: %w", err)
	}

	for _, dir := range ancestorDirs([]string{filePath}) {
		if err := inst.MkdirAll(ctx, dir); err != nil {
			m.logger.Debug("mkdir failed, continuing",
				zap.String("dir", dir), zap.Error(err))
		}
	}
	return inst.WriteFile(ctx, filePath, content)
}

// ancestorDirs returns every directory implied by the given file paths,
// deduplicated and ordered shortest-first so parents sort before children.
func ancestorDirs(paths []string) []string {
	seen := make(map[string]struct{})
	for _, p := range paths {
		dir := path.Dir(p)
		for dir != "." && dir != "/" && dir != "" {
			seen[dir] = struct{}{}
			dir = path.Dir(dir)
		}
	}

	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool {
		di, dj := strings.Count(dirs[i], "/"), strings.Count(dirs[j], "/")
		if di != dj {
			return di < dj
		}
		return dirs[i] < dirs[j]
	})
	return dirs
}
