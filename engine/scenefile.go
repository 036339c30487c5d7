package engine

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/plus3/scriptbridge/bridge"
	"github.com/plus3/scriptbridge/ecs"
)

// SceneFile is the YAML description of a scene.
//
//	name: Garage
//	entities:
//	  - name: Camera
//	    transform: {position: [0, 2, 8]}
//	    camera: {fov: 60, primary: true}
//	    scripts:
//	      - type: CameraScript
//	        fields: {Speed: 5}
//	  - name: Car
//	    scripts:
//	      - type: CarScript
//	        refs:
//	          CameraTransform: {entity: Camera, component: Transform}
type SceneFile struct {
	Name     string       `yaml:"name"`
	Entities []EntitySpec `yaml:"entities"`
}

type EntitySpec struct {
	Name string `yaml:"name"`
	// ID is an optional UUID; a random one is assigned when empty.
	ID        string         `yaml:"id,omitempty"`
	Transform *TransformSpec `yaml:"transform,omitempty"`
	Camera    *CameraSpec    `yaml:"camera,omitempty"`
	Light     *LightSpec     `yaml:"light,omitempty"`
	Scripts   []ScriptSpec   `yaml:"scripts,omitempty"`
}

type TransformSpec struct {
	Position []float32 `yaml:"position,omitempty"`
	Rotation []float32 `yaml:"rotation,omitempty"`
	Scale    []float32 `yaml:"scale,omitempty"`
}

type CameraSpec struct {
	FieldOfView *float32 `yaml:"fov,omitempty"`
	Near        *float32 `yaml:"near,omitempty"`
	Far         *float32 `yaml:"far,omitempty"`
	Aspect      *float32 `yaml:"aspect,omitempty"`
	Primary     bool     `yaml:"primary,omitempty"`
}

type LightSpec struct {
	Color     []float32 `yaml:"color,omitempty"`
	Intensity *float32  `yaml:"intensity,omitempty"`
}

// ScriptSpec attaches one script. Fields are applied with bridge.SetField
// before the script starts; Refs inject components of other entities of the
// same scene, found by name.
type ScriptSpec struct {
	Type   string             `yaml:"type"`
	Fields map[string]any     `yaml:"fields,omitempty"`
	Refs   map[string]RefSpec `yaml:"refs,omitempty"`
}

type RefSpec struct {
	Entity    string `yaml:"entity"`
	Component string `yaml:"component"`
}

// LoadSceneFile reads and parses a scene file.
func LoadSceneFile(path string) (*SceneFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}
	return ParseSceneFile(data)
}

// ParseSceneFile parses YAML scene data and checks it for structural errors.
func ParseSceneFile(data []byte) (*SceneFile, error) {
	var sf SceneFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing scene file: %w", err)
	}
	if err := sf.Validate(); err != nil {
		return nil, err
	}
	return &sf, nil
}

// Validate checks names, vectors, UUIDs, capabilities and that every
// reference points at an entity declared in the file. Script types are
// checked when the scene is loaded into an engine.
func (sf *SceneFile) Validate() error {
	var errs []error
	names := make(map[string]bool, len(sf.Entities))
	for _, ent := range sf.Entities {
		if ent.Name != "" {
			names[ent.Name] = true
		}
	}
	for i, ent := range sf.Entities {
		where := fmt.Sprintf("entity %d (%s)", i, ent.Name)
		if ent.ID != "" {
			if _, err := uuid.Parse(ent.ID); err != nil {
				errs = append(errs, fmt.Errorf("%s: id: %w", where, err))
			}
		}
		if t := ent.Transform; t != nil {
			for label, v := range map[string][]float32{"position": t.Position, "rotation": t.Rotation, "scale": t.Scale} {
				if len(v) > 3 {
					errs = append(errs, fmt.Errorf("%s: %s has %d components", where, label, len(v)))
				}
			}
		}
		if l := ent.Light; l != nil && len(l.Color) > 3 {
			errs = append(errs, fmt.Errorf("%s: light color has %d components", where, len(l.Color)))
		}
		for _, script := range ent.Scripts {
			if script.Type == "" {
				errs = append(errs, fmt.Errorf("%s: script without type", where))
			}
			for field, ref := range script.Refs {
				if !names[ref.Entity] {
					errs = append(errs, fmt.Errorf("%s: %s.%s references unknown entity %q", where, script.Type, field, ref.Entity))
				}
				if _, err := bridge.ParseCapability(ref.Component); err != nil {
					errs = append(errs, fmt.Errorf("%s: %s.%s: %w", where, script.Type, field, err))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func vec3(v []float32, fallback mgl32.Vec3) mgl32.Vec3 {
	if v == nil {
		return fallback
	}
	var out mgl32.Vec3
	copy(out[:], v)
	return out
}

func (ent EntitySpec) components() []any {
	var comps []any
	if ent.ID != "" {
		comps = append(comps, Identity{UUID: uuid.MustParse(ent.ID)})
	}
	transform := NewTransform()
	if t := ent.Transform; t != nil {
		transform = Placed(
			vec3(t.Position, mgl32.Vec3{}),
			vec3(t.Rotation, mgl32.Vec3{}),
			vec3(t.Scale, mgl32.Vec3{1, 1, 1}),
		)
	}
	comps = append(comps, transform)
	if c := ent.Camera; c != nil {
		camera := DefaultCamera()
		setIf(&camera.FieldOfView, c.FieldOfView)
		setIf(&camera.Near, c.Near)
		setIf(&camera.Far, c.Far)
		setIf(&camera.Aspect, c.Aspect)
		camera.Primary = c.Primary
		comps = append(comps, camera)
	}
	if l := ent.Light; l != nil {
		light := DefaultPointLight()
		light.Color = vec3(l.Color, light.Color)
		setIf(&light.Intensity, l.Intensity)
		comps = append(comps, light)
	}
	return comps
}

func setIf(dst *float32, v *float32) {
	if v != nil {
		*dst = *v
	}
}

// LoadScene creates a scene from sf. Entities are created first, then
// scripts are attached with their field overrides, then references are
// injected. On error the partially built scene is destroyed.
func (e *Engine) LoadScene(sf *SceneFile) (*Scene, error) {
	if err := sf.Validate(); err != nil {
		return nil, err
	}
	scene := e.CreateScene(sf.Name)

	entities := make([]ecs.Entity, len(sf.Entities))
	for i, spec := range sf.Entities {
		entities[i] = scene.CreateEntity(spec.Name, spec.components()...)
	}

	type pending struct {
		inst *bridge.Instance
		refs map[string]RefSpec
	}
	var refs []pending
	for i, spec := range sf.Entities {
		for _, script := range spec.Scripts {
			inst, err := e.AttachScript(scene, entities[i], script.Type)
			if err != nil {
				e.DestroyScene(scene.id)
				return nil, fmt.Errorf("entity %q: %w", spec.Name, err)
			}
			for _, name := range sortedKeys(script.Fields) {
				if err := bridge.SetField(inst, name, script.Fields[name]); err != nil {
					e.DestroyScene(scene.id)
					return nil, fmt.Errorf("entity %q: %s.%s: %w", spec.Name, script.Type, name, err)
				}
			}
			if len(script.Refs) > 0 {
				refs = append(refs, pending{inst: inst, refs: script.Refs})
			}
		}
	}

	for _, p := range refs {
		for _, field := range sortedKeys(p.refs) {
			ref := p.refs[field]
			target, _ := scene.FindByName(ref.Entity)
			c, _ := bridge.ParseCapability(ref.Component)
			if err := e.Inject(p.inst, field, scene, target, c); err != nil {
				e.DestroyScene(scene.id)
				return nil, fmt.Errorf("%s.%s: %w", p.inst.Name(), field, err)
			}
		}
	}

	e.logger.Info("scene loaded",
		zap.String("scene", scene.name),
		zap.Int("entities", len(entities)),
		zap.Int("scripts", e.dispatcher.Len()))
	return scene, nil
}

// LoadSceneFile reads path and loads it into a new scene.
func (e *Engine) LoadSceneFile(path string) (*Scene, error) {
	sf, err := LoadSceneFile(path)
	if err != nil {
		return nil, err
	}
	return e.LoadScene(sf)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
