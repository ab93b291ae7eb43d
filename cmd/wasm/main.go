//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/anreonyr/simphy/internal/document"
	"github.com/anreonyr/simphy/internal/engine"
)

var eng *engine.Engine

func main() {
	eng = engine.New(engine.DefaultOptions())

	// Create the engine API object
	simphyEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	simphyEngine.Set("setTool", js.FuncOf(setTool))
	simphyEngine.Set("updateTemplate", js.FuncOf(updateTemplate))
	simphyEngine.Set("editSelected", js.FuncOf(editSelected))
	simphyEngine.Set("tick", js.FuncOf(tick))
	simphyEngine.Set("newScene", js.FuncOf(newScene))
	simphyEngine.Set("loadSample", js.FuncOf(loadSample))
	simphyEngine.Set("loadScene", js.FuncOf(loadScene))
	simphyEngine.Set("deleteSelected", js.FuncOf(deleteSelected))
	simphyEngine.Set("duplicateSelected", js.FuncOf(duplicateSelected))
	simphyEngine.Set("play", js.FuncOf(play))
	simphyEngine.Set("pause", js.FuncOf(pause))
	simphyEngine.Set("togglePlay", js.FuncOf(togglePlay))
	simphyEngine.Set("reset", js.FuncOf(reset))
	simphyEngine.Set("setTimeScale", js.FuncOf(setTimeScale))

	// --- Queries (frontend ← engine) ---
	simphyEngine.Set("getFrame", js.FuncOf(getFrame))
	simphyEngine.Set("getTemplate", js.FuncOf(getTemplate))
	simphyEngine.Set("exportScene", js.FuncOf(exportScene))
	simphyEngine.Set("isDirty", js.FuncOf(isDirty))
	simphyEngine.Set("isPlaying", js.FuncOf(isPlaying))

	// Register on global scope
	js.Global().Set("simphyEngine", simphyEngine)

	// Signal that WASM is ready
	js.Global().Set("simphyWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func ok() interface{} {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func fail(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

// --- Command Handlers ---

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("tool")
	}
	tool, err := engine.ParseTool(args[0].String())
	if err != nil {
		return fail(err)
	}
	eng.SetTool(tool)
	return ok()
}

func updateTemplate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("template JSON")
	}
	patch, err := engine.ParseTemplatePatch([]byte(args[0].String()))
	if err != nil {
		return fail(err)
	}
	if err := eng.UpdateTemplate(patch); err != nil {
		return fail(err)
	}
	return ok()
}

func editSelected(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("properties JSON")
	}
	patch, err := engine.ParsePropertyPatch([]byte(args[0].String()))
	if err != nil {
		return fail(err)
	}
	if err := eng.EditSelected(patch); err != nil {
		return fail(err)
	}
	return ok()
}

// tick(inputJSON, dt) runs one frame and returns the frame JSON.
func tick(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("{}")
	}
	var in engine.Input
	if s := args[0].String(); s != "" {
		if err := json.Unmarshal([]byte(s), &in); err != nil {
			return js.ValueOf("{}")
		}
	}
	eng.Tick(in, args[1].Float())
	return getFrame(this, nil)
}

func newScene(this js.Value, args []js.Value) interface{} {
	eng.NewScene()
	return ok()
}

func loadSample(this js.Value, args []js.Value) interface{} {
	if err := eng.LoadSample(); err != nil {
		return fail(err)
	}
	return ok()
}

// loadScene(text, format) imports scene text, "yaml" by default.
func loadScene(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("scene text")
	}
	format := document.YAML
	if len(args) > 1 && args[1].Type() == js.TypeString {
		var err error
		if format, err = document.ParseFormat(args[1].String()); err != nil {
			return fail(err)
		}
	}
	if err := eng.Import(format, []byte(args[0].String())); err != nil {
		return fail(err)
	}
	return ok()
}

func deleteSelected(this js.Value, args []js.Value) interface{} {
	if err := eng.DeleteSelected(); err != nil {
		return fail(err)
	}
	return ok()
}

func duplicateSelected(this js.Value, args []js.Value) interface{} {
	dup, err := eng.DuplicateSelected()
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "id": dup.ID})
}

func play(this js.Value, args []js.Value) interface{} {
	eng.Play()
	return nil
}

func pause(this js.Value, args []js.Value) interface{} {
	eng.Pause()
	return nil
}

func togglePlay(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Toggle())
}

func reset(this js.Value, args []js.Value) interface{} {
	eng.Reset()
	return nil
}

func setTimeScale(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("time scale")
	}
	if err := eng.SetTimeScale(args[0].Float()); err != nil {
		return fail(err)
	}
	return ok()
}

// --- Query Handlers ---

func getFrame(this js.Value, args []js.Value) interface{} {
	s, _ := eng.FrameJSON()
	return js.ValueOf(s)
}

func getTemplate(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(eng.Template())
	if err != nil {
		return js.ValueOf("{}")
	}
	return js.ValueOf(string(data))
}

// exportScene(format) returns the scene text, "yaml" by default.
func exportScene(this js.Value, args []js.Value) interface{} {
	format := document.YAML
	if len(args) > 0 && args[0].Type() == js.TypeString {
		var err error
		if format, err = document.ParseFormat(args[0].String()); err != nil {
			return fail(err)
		}
	}
	data, err := eng.Export(format)
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(string(data))
}

func isDirty(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.IsDirty())
}

func isPlaying(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.IsRunning())
}
