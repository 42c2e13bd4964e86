package view

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// disk is a named root of view files. Root is empty for disks mounted from
// an fs.FS.
type disk struct {
	name string
	root string
	fsys fs.FS
}

// CreateViewDisk mounts a disk. With a single argument the path is mounted
// as the default disk; with two the first argument names the disk:
//
//	v.CreateViewDisk("resources/views")
//	v.CreateViewDisk("admin", "resources/views/admin")
//
//	v.Render(ctx, "admin/users", data)     // default disk
//	v.Render(ctx, "admin::users", data)    // named disk
//
// Relative paths are resolved against the work directory. Mounting an
// existing name replaces it.
func (v *View) CreateViewDisk(nameOrPath string, path ...string) *View {
	name, root := DefaultDisk, nameOrPath
	if len(path) > 0 {
		name, root = nameOrPath, path[0]
	}

	root = v.ResolvePath(root)
	v.logger.Debug("creating view disk", zap.String("disk", name), zap.String("path", root))

	v.mount(disk{name: name, root: root, fsys: os.DirFS(root)})
	return v
}

// CreateViewDiskFS mounts fsys under name, which lets embedded views be
// rendered the same way as views on disk.
func (v *View) CreateViewDiskFS(name string, fsys fs.FS) *View {
	if strings.TrimSpace(name) == "" {
		name = DefaultDisk
	}
	v.logger.Debug("creating view disk from fs", zap.String("disk", name))

	v.mount(disk{name: name, fsys: fsys})
	return v
}

// RemoveViewDisk unmounts a disk. Unknown names are ignored.
func (v *View) RemoveViewDisk(name string) *View {
	v.mu.Lock()
	_, ok := v.disks[name]
	if ok {
		delete(v.disks, name)
	}
	v.mu.Unlock()

	if !ok {
		v.logger.Debug("view disk does not exist, skipping removal", zap.String("disk", name))
		return v
	}

	v.logger.Debug("removed view disk", zap.String("disk", name))
	v.engine.Invalidate()
	return v
}

// HasViewDisk reports whether name resolves to a view file in a mounted disk
// or is itself the name of a mounted disk:
//
//	v.CreateViewDisk("testing", "views/testing")
//	v.HasViewDisk("testing")                 // true
//	v.HasViewDisk("testing::list")           // true if views/testing/list.html exists
//	v.HasViewDisk("testing::missing")        // false
func (v *View) HasViewDisk(name string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if d, file, ok := v.resolveLocked(name); ok {
		if info, err := fs.Stat(d.fsys, file); err == nil && !info.IsDir() {
			return true
		}
	}

	_, ok := v.disks[name]
	return ok
}

// ViewDisks returns the sorted names of the mounted disks.
func (v *View) ViewDisks() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	names := make([]string, 0, len(v.disks))
	for name := range v.disks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DiskRoots returns the filesystem roots of the disks mounted from paths,
// keyed by disk name.
func (v *View) DiskRoots() map[string]string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	roots := make(map[string]string, len(v.disks))
	for name, d := range v.disks {
		if d.root == "" {
			continue
		}
		roots[name] = d.root
	}
	return roots
}

// Open resolves name for the engine. Components win over disk files so an
// in-memory template can shadow a view with the same name.
func (v *View) Open(name string) (io.Reader, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if body, ok := v.components[name]; ok {
		return strings.NewReader(body), nil
	}

	d, file, ok := v.resolveLocked(name)
	if !ok {
		return nil, fmt.Errorf("view: %q: %w", name, fs.ErrNotExist)
	}

	content, err := fs.ReadFile(d.fsys, file)
	if err != nil {
		return nil, fmt.Errorf("view: %q on disk %s: %w", name, d.name, err)
	}
	return bytes.NewReader(content), nil
}

func (v *View) mount(d disk) {
	v.mu.Lock()
	v.disks[d.name] = d
	v.mu.Unlock()

	v.engine.Invalidate()
}

// resolveLocked maps a view name to its disk and the file inside it. The
// caller must hold v.mu.
func (v *View) resolveLocked(name string) (disk, string, bool) {
	diskName, file := splitName(name)
	if file == "" {
		return disk{}, "", false
	}

	d, ok := v.disks[diskName]
	if !ok {
		return disk{}, "", false
	}

	file = v.withExtension(file)
	if !fs.ValidPath(file) {
		return disk{}, "", false
	}
	return d, file, true
}

func (v *View) withExtension(file string) string {
	if strings.HasSuffix(file, v.extension) {
		return file
	}
	return file + v.extension
}

// splitName splits "disk::path" into its parts. Names without a disk prefix
// belong to the default disk.
func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	diskName, file, found := strings.Cut(name, diskSeparator)
	if !found {
		return DefaultDisk, cleanFile(name)
	}
	return diskName, cleanFile(file)
}

func cleanFile(file string) string {
	file = strings.TrimPrefix(strings.TrimSpace(file), "/")
	if file == "" {
		return ""
	}
	return path.Clean(file)
}
