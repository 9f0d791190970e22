package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/vkframes/engine/assets/loaders"
	"github.com/spaghettifunk/vkframes/engine/core"
	"github.com/spaghettifunk/vkframes/engine/renderer/metadata"
)

var ErrAssetManagerClosed = errors.New("asset manager already shut down")

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	AssetTypeShader
	AssetTypeModel
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeShader:
		return "shader"
	case AssetTypeModel:
		return "model"
	default:
		return "none"
	}
}

type AssetInfo struct {
	Path     string
	Type     AssetType
	Modified time.Time
}

// AssetChange reports a file of a known type that was created or rewritten
// while the manager was watching.
type AssetChange struct {
	Path string
	Type AssetType
}

/**
 * @brief Indexes the files of an assets directory and loads them by name.
 * When watching, creations and writes of known assets are reported on
 * Changes(); the renderer does not hot reload them.
 */
type AssetManager struct {
	root    string
	assets  map[string]AssetInfo
	loaders map[AssetType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
	changes  chan AssetChange
}

func NewAssetManager() *AssetManager {
	am := &AssetManager{
		assets:  make(map[string]AssetInfo),
		loaders: make(map[AssetType]Loader),
		changes: make(chan AssetChange, 16),
		done:    make(chan struct{}),
	}
	am.registerLoader(AssetTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(AssetTypeModel, &loaders.ModelLoader{})
	return am
}

// Initialize indexes assetsDir and, when watch is set, starts watching it and
// every directory below it.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	am.mutex.RLock()
	closed := am.isClosed
	am.mutex.RUnlock()
	if closed {
		return ErrAssetManagerClosed
	}

	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(root); err != nil {
		return fmt.Errorf("assets directory: %w", err)
	} else if !fi.IsDir() {
		return fmt.Errorf("assets path %s is not a directory", root)
	}
	am.root = root

	if watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		am.fsnotify = w
		am.wg.Add(1)
		go am.start()
	}

	if err := am.watchRecursive(root); err != nil {
		return err
	}
	core.LogInfo("Asset manager indexed %d assets under %s (watch=%t).", am.Count(), root, watch)
	return nil
}

// Shutdown stops the watcher and closes the Changes channel.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	am.wg.Wait()
	if am.fsnotify != nil {
		if err := am.fsnotify.Close(); err != nil {
			return err
		}
	}
	close(am.changes)
	return nil
}

// Changes delivers modified assets. Changes are dropped, with a warning,
// when nobody drains the channel.
func (am *AssetManager) Changes() <-chan AssetChange {
	return am.changes
}

func (am *AssetManager) Count() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// Find returns the index entry of a path relative to the assets directory.
func (am *AssetManager) Find(relPath string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.Join(am.root, relPath)]
	return info, ok
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType AssetType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadShader loads shaders/<name>.spv.
func (am *AssetManager) LoadShader(name string) ([]uint32, error) {
	loaded, err := am.load(filepath.Join("shaders", name+".spv"), AssetTypeShader)
	if err != nil {
		return nil, err
	}
	return loaded.([]uint32), nil
}

// LoadModel loads models/<name>.obj into an unnamed mesh.
func (am *AssetManager) LoadModel(name string) (*metadata.Mesh, error) {
	loaded, err := am.load(filepath.Join("models", name+".obj"), AssetTypeModel)
	if err != nil {
		return nil, err
	}
	return &metadata.Mesh{Vertices: loaded.([]metadata.Vertex)}, nil
}

func (am *AssetManager) load(relPath string, assetType AssetType) (interface{}, error) {
	path := filepath.Join(am.root, relPath)

	am.mutex.RLock()
	asset, exists := am.assets[path]
	am.mutex.RUnlock()
	if !exists {
		return nil, fmt.Errorf("asset not found: %s", relPath)
	}
	if asset.Type != assetType {
		return nil, fmt.Errorf("asset %s is a %s, not a %s", relPath, asset.Type, assetType)
	}

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	core.LogDebug("Loading %s %s", asset.Type, relPath)
	return loader.Load(path)
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	if e.Has(fsnotify.Create) {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogWarn("cannot watch %s: %s", e.Name, err)
			}
			return
		}
	}
	if e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename) {
		am.removeAsset(e.Name)
		return
	}
	if e.Has(fsnotify.Create) || e.Has(fsnotify.Write) {
		if info, ok := am.indexFile(e.Name); ok {
			am.notify(AssetChange{Path: info.Path, Type: info.Type})
		}
	}
}

func (am *AssetManager) notify(change AssetChange) {
	select {
	case am.changes <- change:
	default:
		core.LogWarn("asset change dropped: %s", change.Path)
	}
}

// watchRecursive indexes every file under path and adds its directories to
// the watch list when watching.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if am.fsnotify != nil {
				return am.fsnotify.Add(walkPath)
			}
			return nil
		}
		am.indexFile(walkPath)
		return nil
	})
}

// indexFile records the creation or modification of a file.
func (am *AssetManager) indexFile(path string) (AssetInfo, bool) {
	assetType := determineAssetType(path)
	if assetType == AssetTypeNone {
		return AssetInfo{}, false
	}
	info := AssetInfo{
		Path:     path,
		Type:     assetType,
		Modified: time.Now(),
	}

	am.mutex.Lock()
	am.assets[path] = info
	am.mutex.Unlock()
	return info, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, path)
}

func determineAssetType(path string) AssetType {
	switch filepath.Ext(path) {
	case ".spv":
		return AssetTypeShader
	case ".obj":
		return AssetTypeModel
	default:
		return AssetTypeNone
	}
}
