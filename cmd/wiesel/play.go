package main

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plus3/scriptbridge/debugui"
	debugui_ebiten "github.com/plus3/scriptbridge/debugui/ebiten"
	"github.com/plus3/scriptbridge/ecs"
	"github.com/plus3/scriptbridge/engine"
	"github.com/plus3/scriptbridge/internal/injector"
)

const pixelsPerUnit = 24

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run scenes in a window with the debug inspector",
		Long: `Play opens a window, feeds keyboard and mouse input to the scripts and
draws a top-down view of every scene. F1 toggles the inspector, Ctrl+Q quits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			scenes, _ := cmd.Flags().GetStringSlice("scene")

			app, cleanup, err := injector.InitializeApp(config)
			if err != nil {
				return err
			}
			defer cleanup()

			for _, path := range scenes {
				if _, err := app.Engine.LoadSceneFile(path); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			backend := debugui_ebiten.NewImguiBackend(config.Window.Title, config.Window.Width, config.Window.Height)
			imgui.CurrentIO().SetIniFilename("")
			ebiten.SetTPS(config.Loop.TickRate)
			ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

			overlay := debugui.NewOverlay()
			overlay.Attach(app.Engine)

			g := &game{
				engine:  app.Engine,
				logger:  app.Logger.Named("play"),
				backend: backend,
				overlay: overlay,
				showUI:  true,
			}
			if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringSlice("scene", nil, "Scene file to load (repeatable)")
	cmd.Flags().Int("tick-rate", 0, "Frames per second, overrides the config")
	cmd.Flags().Int("max-faults", 0, "Consecutive faults before a script is detached, overrides the config")
	return cmd
}

// game implements ebiten.Game around the engine.
type game struct {
	engine  *engine.Engine
	logger  *zap.Logger
	backend debugui_ebiten.ImguiBackend
	overlay *debugui.Overlay
	poller  debugui_ebiten.InputPoller
	showUI  bool
}

func (g *game) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyControlLeft) && inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.showUI = !g.showUI
	}

	window := g.engine.Config().Window
	state := g.overlay.InputState()
	if !g.showUI {
		state = debugui.ImguiInputState{}
	}
	g.poller.Poll(g.engine.Post, g.engine.Input().CursorMode(), window.Width, window.Height,
		state.WantCaptureKeyboard, state.WantCaptureMouse)

	g.backend.BeginFrame()
	dt := 1 / float32(ebiten.TPS())
	for _, f := range g.engine.Frame(dt) {
		g.logger.Debug("fault", zap.Error(f))
	}
	if g.showUI {
		g.overlay.Render(float64(dt))
	}
	g.backend.EndFrame()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{30, 32, 36, 255})

	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	for _, scene := range g.engine.Scenes() {
		drawScene(screen, scene, float32(w)/2, float32(h)/2)
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("TPS %.0f  frame %d  scripts %d",
		ebiten.ActualTPS(), g.engine.Frames(), g.engine.Dispatcher().Len()), 8, h-20)

	if g.showUI {
		g.backend.Draw(screen)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// drawScene draws the X/Z plane of a scene centered on the primary camera.
func drawScene(screen *ebiten.Image, scene *engine.Scene, cx, cy float32) {
	world := scene.World()

	var originX, originZ float32
	for e, cam := range ecs.Each[engine.Camera](world) {
		if t := ecs.Get[engine.Transform](world, e); cam.Primary && t != nil {
			originX, originZ = t.Position.X(), t.Position.Z()
			break
		}
	}
	project := func(t *engine.Transform) (float32, float32) {
		return cx + (t.Position.X()-originX)*pixelsPerUnit, cy + (t.Position.Z()-originZ)*pixelsPerUnit
	}

	for e, id := range scene.Entities() {
		t := ecs.Get[engine.Transform](world, e)
		if t == nil {
			continue
		}
		x, y := project(t)
		switch {
		case ecs.Has[engine.Camera](world, e):
			vector.StrokeRect(screen, x-6, y-6, 12, 12, 2, color.RGBA{120, 200, 255, 255}, false)
		case ecs.Has[engine.PointLight](world, e):
			light := ecs.Get[engine.PointLight](world, e)
			vector.DrawFilledCircle(screen, x, y, 4+light.Intensity, rgb(light.Color), false)
		default:
			sw := max(t.Scale.X()*pixelsPerUnit/2, 6)
			sh := max(t.Scale.Z()*pixelsPerUnit/2, 6)
			vector.DrawFilledRect(screen, x-sw/2, y-sh/2, sw, sh, color.RGBA{200, 200, 190, 255}, false)
		}
		ebitenutil.DebugPrintAt(screen, id.Name, int(x)+8, int(y)-8)
	}
}

func rgb(c [3]float32) color.RGBA {
	clamp := func(v float32) uint8 {
		return uint8(min(max(v, 0), 1) * 255)
	}
	return color.RGBA{clamp(c[0]), clamp(c[1]), clamp(c[2]), 255}
}
