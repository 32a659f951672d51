package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/enginert/runtime/internal/components"
	"github.com/enginert/runtime/internal/config"
	"github.com/enginert/runtime/internal/core/ecs"
	"github.com/enginert/runtime/internal/core/event"
	coresys "github.com/enginert/runtime/internal/core/system"
	"github.com/enginert/runtime/internal/data"
	gonet "github.com/enginert/runtime/internal/net"
	"github.com/enginert/runtime/internal/persist"
	"github.com/enginert/runtime/internal/render"
	"github.com/enginert/runtime/internal/resource"
	"github.com/enginert/runtime/internal/scripting"
	"github.com/enginert/runtime/internal/spatial"
	"github.com/enginert/runtime/internal/system"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	cfg, err := config.Load(config.Path("config/engine.toml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	log.Info("starting", zap.String("name", cfg.Engine.Name), zap.Duration("tick", cfg.Engine.TickRate))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 3. Metadata backend + resource registry
	store, err := persist.OpenStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("metadata store: %w", err)
	}
	defer store.Close()

	res, err := resource.NewManager(ctx, resource.Options{
		Root:        cfg.Assets.Root,
		FirstID:     resource.ID(cfg.Assets.FirstID),
		Extensions:  cfg.Assets.Extensions,
		Exclude:     cfg.Assets.Exclude,
		Fingerprint: cfg.Assets.Fingerprint,
	}, store.Metadata, log)
	if err != nil {
		return fmt.Errorf("resources: %w", err)
	}
	if _, err := res.RefreshMetadata(ctx); err != nil {
		return fmt.Errorf("initial asset scan: %w", err)
	}
	log.Info("resources ready", zap.String("backend", store.Backend()), zap.Int("count", res.Len()))

	// 4. World, collaborators, component factories
	world := ecs.NewWorld()
	bus := event.NewBus()
	headless := render.NewHeadless()

	scripts, err := scripting.NewEngine(filepath.Join(cfg.Assets.Root, cfg.Scripting.Dir), world, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer scripts.Close()
	grid := spatial.NewGrid(cfg.Scripting.GridCell)
	scripts.SetNeighbors(grid)

	reg := ecs.NewFactoryRegistry()
	if err := components.RegisterAll(reg, components.Deps{
		Objects:   world,
		Renderer:  headless,
		Projector: headless,
		Resources: res,
		Scripts:   scripts,
		Bus:       bus,
		Log:       log,
	}); err != nil {
		return fmt.Errorf("register components: %w", err)
	}

	// 5. Load the scene off the update goroutine
	loader := resource.NewLoader(context.Background(), cfg.Assets.LoaderWorkers, cfg.Assets.LoaderQueue)
	defer loader.Close()

	scene, err := loadScene(ctx, loader, res, world, reg, cfg.Scene.Path, log)
	if err != nil {
		return err
	}

	// 6. Systems
	tickRate := cfg.Engine.TickRate
	var keyMap *data.KeyMapTable
	if cfg.Input.KeyMap != "" {
		keyMap, err = data.LoadKeyMapTable(filepath.Join(cfg.Assets.Root, cfg.Input.KeyMap))
		if err != nil {
			return fmt.Errorf("input: %w", err)
		}
		log.Info("key map loaded", zap.Int("bindings", keyMap.Count()))
	}
	keys := make(chan event.KeyEvent, 64)
	mouse := make(chan event.MouseEvent, 64)
	if cfg.Input.Stdin {
		go readInput(os.Stdin, keyMap, keys, mouse, log)
	}
	if cfg.Input.Listen != "" {
		remote, err := gonet.NewServer(cfg.Input.Listen, keys, mouse, gonet.Options{
			LinesPerSecond: cfg.Input.LinesPerSecond,
			Translate:      keyMap.Translate,
		}, log)
		if err != nil {
			return fmt.Errorf("input listener: %w", err)
		}
		go remote.AcceptLoop()
		defer remote.Shutdown()
		log.Info("remote input listening", zap.String("addr", remote.Addr().String()))
	}

	persistence := system.NewPersistenceSystem(res, log, everyTicks(cfg.Scene.FlushEvery, tickRate))
	if cfg.Scene.SavePath != "" {
		target, err := res.Get(cfg.Scene.SavePath)
		if err != nil {
			return fmt.Errorf("scene save path: %w", err)
		}
		persistence.AutosaveScene(scene, target, everyTicks(cfg.Scene.AutosaveEvery, tickRate))
	}
	var sink system.ReportSink
	if store.Log != nil {
		sink = store.Log
	}
	refresh := system.NewRefreshSystem(res, bus, sink, log, everyTicks(cfg.Scene.RefreshEvery, tickRate))

	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(bus, keys, mouse, cfg.Input.MaxPerTick))
	runner.Register(system.NewSpatialSystem(world, grid))
	runner.Register(system.NewSceneSystem(world, log))
	runner.Register(system.NewDrawSystem(world, headless, log))
	runner.Register(persistence)
	runner.Register(refresh)
	runner.Register(system.NewCleanupSystem(world, bus, log))

	// 7. Main loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(tickRate)
	defer ticker.Stop()

	log.Info("running", zap.String("scene", scene.Name()), zap.Int("objects", world.ObjectCount()))

	shutdown := func(reason string) {
		log.Info("stopping", zap.String("reason", reason))
		refresh.Wait()
		persistence.Shutdown(scene)
		log.Info("stopped", zap.Int("frames", headless.Frames()))
	}

	ticks := 0
	for {
		select {
		case <-ticker.C:
			runner.Tick(tickRate)
			ticks++
			if cfg.Engine.MaxTicks > 0 && ticks >= cfg.Engine.MaxTicks {
				shutdown("max ticks reached")
				return nil
			}
		case sig := <-shutdownCh:
			shutdown(sig.String())
			return nil
		}
	}
}

// loadScene reads and imports the scene. Nodes that fail to decode are
// logged and skipped; a missing or unparsable file is fatal.
func loadScene(ctx context.Context, loader *resource.Loader, res *resource.Manager, world *ecs.World, reg *ecs.FactoryRegistry, path string, log *zap.Logger) (*ecs.Scene, error) {
	r, err := res.Get(path)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	node, err := resource.Submit(loader, r, resource.ReadNode).Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	scene, err := world.ImportScene(node, reg)
	if scene == nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	for _, e := range multierr.Errors(err) {
		var ne *ecs.NodeError
		if errors.As(e, &ne) {
			log.Warn("scene node skipped",
				zap.String("object", ne.Object),
				zap.Int("index", ne.Index),
				zap.String("tag", ne.Tag),
				zap.Error(ne.Err),
			)
			continue
		}
		log.Warn("scene import", zap.Error(e))
	}
	return scene, nil
}

// everyTicks converts a period into a tick count. A zero period means never.
func everyTicks(period, tick time.Duration) int {
	if period <= 0 {
		return 0
	}
	n := int(period / tick)
	if n < 1 {
		n = 1
	}
	return n
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
