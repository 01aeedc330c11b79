// rasteriser - terminal 3D model viewer built on pkg/gl.
//
// Controls:
//
//	Mouse drag  - Rotate model (yaw/pitch)
//	Scroll      - Zoom in/out
//	W/S/A/D     - Pitch and yaw
//	Q/E         - Roll left/right
//	Space       - Apply random impulse
//	R           - Reset rotation
//	T           - Toggle texture on/off
//	X           - Toggle wireframe mode
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/rasteriser/pkg/color"
	"github.com/taigrr/rasteriser/pkg/display"
	"github.com/taigrr/rasteriser/pkg/gl"
	"github.com/taigrr/rasteriser/pkg/math3d"
	"github.com/taigrr/rasteriser/pkg/mesh"
	"github.com/taigrr/rasteriser/pkg/shader"
	"github.com/taigrr/rasteriser/pkg/texture"
)

var (
	texturePath = flag.String("texture", "", "Path to a diffuse texture (PNG/JPEG)")
	targetFPS   = flag.Int("fps", 30, "Target frames per second")
	pngOut      = flag.String("save", "", "Also save the first rendered frame as a PNG to this path")
	cullFaces   = flag.Bool("cull", false, "Frustum-cull faces before dispatching them to the rasterizer")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "rasteriser - terminal 3D model viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: rasteriser [options] <model.obj|model.glb>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// axis tracks a rotation angle and its velocity, decayed toward zero by a
// critically damped spring so mouse-drag rotation coasts to a stop.
type axis struct {
	Position, Velocity float64
	spring             harmonica.Spring
	accel              float64
}

func newAxis(fps int) axis {
	return axis{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

func (a *axis) update() {
	a.Position += a.Velocity
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
}

type rotation struct {
	pitch, yaw, roll axis
	fps              int
}

func newRotation(fps int) *rotation {
	return &rotation{pitch: newAxis(fps), yaw: newAxis(fps), roll: newAxis(fps), fps: fps}
}

func (r *rotation) update() {
	r.pitch.update()
	r.yaw.update()
	r.roll.update()
}

func (r *rotation) impulse(pitch, yaw, roll float64) {
	r.pitch.Velocity += pitch
	r.yaw.Velocity += yaw
	r.roll.Velocity += roll
}

func (r *rotation) reset() {
	*r = *newRotation(r.fps)
}

type renderMode int

const (
	modeTextured renderMode = iota
	modeWireframe
)

func run(modelPath string) error {
	term, err := display.NewTerminal()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	defer term.Close()

	fbW, fbH := term.FramebufferSize()
	g := gl.New(fbW, fbH)

	m, tex, err := loadModel(modelPath, *texturePath)
	if err != nil {
		return err
	}
	m.RecomputeBounds()
	center := m.Bounds.Center()
	size := m.Bounds.Size()
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	if maxDim > 0 {
		scale := 2.0 / maxDim
		m.Transform(math3d.Scale(math3d.V3(scale, scale, scale)).Mul(math3d.Translate(center.Negate())))
	}

	rot := newRotation(*targetFPS)
	mode := modeTextured
	textureOn := true
	showHUD := true
	lightDir := math3d.V3(0.5, 1, 0.3).Normalize()

	cameraZ := 5.0
	camera := math3d.V3(0, 0, cameraZ)
	target := math3d.Zero3()
	fovy := math.Pi / 3

	var mouseDown bool
	var lastX, lastY int
	const torque = 3.0
	var torquePitch, torqueYaw, torqueRoll float64

	saved := false
	frameDur := time.Second / time.Duration(*targetFPS)
	lastFrame := time.Now()

	for {
		select {
		case ev := <-term.Events():
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				term.Resize(ev.Width, ev.Height)
				fbW, fbH = term.FramebufferSize()
				g = gl.New(fbW, fbH)
			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
					return nil
				case ev.MatchString("r"):
					rot.reset()
					cameraZ = 5.0
					camera = math3d.V3(0, 0, cameraZ)
				case ev.MatchString("w", "up"):
					torquePitch = -torque
				case ev.MatchString("s", "down"):
					torquePitch = torque
				case ev.MatchString("a", "left"):
					torqueYaw = -torque
				case ev.MatchString("d", "right"):
					torqueYaw = torque
				case ev.MatchString("q"):
					torqueRoll = -torque
				case ev.MatchString("e"):
					torqueRoll = torque
				case ev.MatchString("space"):
					rot.impulse((rand.Float64()-0.5)*1.5, (rand.Float64()-0.5)*1.5, (rand.Float64()-0.5)*1.5)
				case ev.MatchString("t"):
					textureOn = !textureOn
				case ev.MatchString("x"):
					if mode == modeWireframe {
						mode = modeTextured
					} else {
						mode = modeWireframe
					}
				case ev.MatchString("?"):
					showHUD = !showHUD
				}
			case uv.KeyReleaseEvent:
				switch {
				case ev.MatchString("w"), ev.MatchString("up"), ev.MatchString("s"), ev.MatchString("down"):
					torquePitch = 0
				case ev.MatchString("a"), ev.MatchString("left"), ev.MatchString("d"), ev.MatchString("right"):
					torqueYaw = 0
				case ev.MatchString("q"), ev.MatchString("e"):
					torqueRoll = 0
				}
			case uv.MouseClickEvent:
				mouseDown = true
				lastX, lastY = ev.X, ev.Y
			case uv.MouseReleaseEvent:
				mouseDown = false
			case uv.MouseMotionEvent:
				if mouseDown {
					dx, dy := ev.X-lastX, ev.Y-lastY
					rot.impulse(float64(dy)*0.03, float64(dx)*0.03, 0)
					lastX, lastY = ev.X, ev.Y
				}
			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					cameraZ = math.Max(1, cameraZ-0.5)
				case uv.MouseWheelDown:
					cameraZ = math.Min(20, cameraZ+0.5)
				}
				camera = math3d.V3(0, 0, cameraZ)
			}
		default:
		}
		if !term.IsRunning() {
			return nil
		}

		now := time.Now()
		dt := now.Sub(lastFrame).Seconds()
		lastFrame = now
		if dt > 0.1 {
			dt = 0.1
		}

		rot.impulse(torquePitch*dt, torqueYaw*dt, torqueRoll*dt)
		torquePitch *= 0.9
		torqueYaw *= 0.9
		torqueRoll *= 0.9
		rot.update()

		model := math3d.RotateX(rot.pitch.Position).
			Mul(math3d.RotateY(rot.yaw.Position)).
			Mul(math3d.RotateZ(rot.roll.Position))

		view := gl.ViewMatrix(camera, target, math3d.Up())
		projection := gl.ProjectionMatrix(fovy)
		mvp := projection.Mul(view).Mul(model)

		g.Clear(gl.RGB(30, 30, 40))

		culled := 0
		switch mode {
		case modeWireframe:
			g.DrawWireframe(m, view.Mul(model), projection, gl.RGB(0, 255, 128))
		default:
			vs := func(in shader.VSInput) shader.VSOutput {
				return shader.VSOutput{
					Position: mvp.MulVec4(in.Position),
					Normal:   math3d.V4FromV3(model.MulVec3Dir(in.Normal.Vec3()).Normalize(), 0),
					Texcoord: in.Texcoord,
				}
			}

			psIn := shader.PSInput{
				LightPos: lightDir,
				CamDir:   camera.Sub(target).Normalize(),
			}

			var ps shader.PixelShader
			switch {
			case textureOn && tex != nil:
				psIn.Textures = []*texture.Texture{tex}
				ps = shader.DiffusePixelShader
			default:
				ps = shader.LambertPixelShader
			}

			if *cullFaces {
				// The frustum is extracted from the full MVP, so the
				// bounding-sphere test runs on untransformed mesh coordinates.
				stats, err := g.DrawCulled(m, vs, shader.VSInput{}, ps, psIn, gl.NewFrustumFromMatrix(mvp))
				if err != nil {
					return fmt.Errorf("draw: %w", err)
				}
				culled = stats.Culled
			} else if err := g.Draw(m, vs, shader.VSInput{}, ps, psIn); err != nil {
				return fmt.Errorf("draw: %w", err)
			}
		}

		// UpdateFrame directly each frame instead of Present (which blocks
		// until the display stops) so the input loop keeps running.
		if err := term.UpdateFrame(color.ToBytesLE(g.Pixels())); err != nil {
			return fmt.Errorf("present frame: %w", err)
		}

		if *pngOut != "" && !saved {
			if err := g.SaveFramebufferAsImage(*pngOut); err != nil {
				fmt.Fprintf(os.Stderr, "warning: save png: %v\n", err)
			}
			saved = true
		}

		if showHUD {
			renderHUD(fbW, fbH, filepath.Base(modelPath), g.LastDrawStats(), mode, textureOn, culled)
		}

		if elapsed := time.Since(now); elapsed < frameDur {
			time.Sleep(frameDur - elapsed)
		}
	}
}

func loadModel(modelPath, texturePath string) (*mesh.Mesh, *texture.Texture, error) {
	ext := strings.ToLower(filepath.Ext(modelPath))

	var m *mesh.Mesh
	var embedded *texture.Texture
	var err error

	switch ext {
	case ".glb", ".gltf":
		loaded, embeddedImg, loadErr := mesh.LoadGLBWithTexture(modelPath)
		if loadErr != nil {
			return nil, nil, fmt.Errorf("load model: %w", loadErr)
		}
		m = loaded
		if embeddedImg != nil {
			embedded = texture.FromImage(embeddedImg)
		}
	case ".obj":
		m, err = mesh.LoadOBJ(modelPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load model: %w", err)
		}
	default:
		return nil, nil, fmt.Errorf("unsupported model format: %s (use .obj or .glb)", ext)
	}

	tex := embedded
	if texturePath != "" {
		tex, err = texture.Load(texturePath)
		if err != nil {
			return nil, nil, fmt.Errorf("load texture: %w", err)
		}
	}
	if tex == nil {
		tex = texture.NewChecker(64, 64, 8, texture.Color{R: 200, G: 200, B: 200, A: 255}, texture.Color{R: 100, G: 100, B: 100, A: 255})
	}

	return m, tex, nil
}

func renderHUD(width, height int, filename string, stats gl.DrawStats, mode renderMode, textureOn bool, culled int) {
	const (
		reset   = "\x1b[0m"
		bold    = "\x1b[1m"
		bgBlack = "\x1b[40m"
		fgWhite = "\x1b[97m"
		fgCyan  = "\x1b[96m"
	)
	moveTo := func(row, col int) string { return fmt.Sprintf("\x1b[%d;%dH", row, col) }

	modeName := "textured"
	if mode == modeWireframe {
		modeName = "wireframe"
	} else if !textureOn {
		modeName = "flat"
	}

	title := fmt.Sprintf("%s%s%s %s [%s] %s", bold, bgBlack, fgWhite, filename, modeName, reset)
	fmt.Print(moveTo(1, 1) + title)

	counts := fmt.Sprintf("%d tris (%d degenerate)", stats.TrianglesSubmitted, stats.TrianglesDegenerate)
	if culled > 0 {
		counts += fmt.Sprintf(", %d culled", culled)
	}
	status := fmt.Sprintf("%s%s%s %s / %d goroutines %s",
		bgBlack, fgCyan, bold, counts, stats.GoroutinesDispatched, reset)
	fmt.Print(moveTo(1, max(1, width-48)) + status)
}
