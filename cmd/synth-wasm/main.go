//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/cwbudde/algo-keysynth/audioout"
	"github.com/cwbudde/algo-keysynth/input"
	"github.com/cwbudde/algo-keysynth/synth"
)

const maxBlock = 128

var (
	stream     *audioout.Stream
	dispatcher *input.Dispatcher
	blockBytes = make([]byte, maxBlock*audioout.BytesPerFrame)
)

func main() {
	c := make(chan struct{})

	js.Global().Set("wasmInit", js.FuncOf(wasmInit))
	js.Global().Set("wasmKeyDown", js.FuncOf(wasmKeyDown))
	js.Global().Set("wasmKeyUp", js.FuncOf(wasmKeyUp))
	js.Global().Set("wasmMIDINote", js.FuncOf(wasmMIDINote))
	js.Global().Set("wasmBlur", js.FuncOf(wasmBlur))
	js.Global().Set("wasmSetRoom", js.FuncOf(wasmSetRoom))
	js.Global().Set("wasmProcessBlock", js.FuncOf(wasmProcessBlock))

	println("WASM synth module loaded")
	<-c
}

// wasmInit(sampleRate) returns an error string or null.
func wasmInit(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return "missing sample rate"
	}
	engine, err := synth.NewAudioEngine(args[0].Int(), synth.NewDefaultParams())
	if err != nil {
		return err.Error()
	}
	stream = audioout.NewStream(engine)
	dispatcher, err = input.NewDispatcher(stream)
	if err != nil {
		return err.Error()
	}
	println("Synth initialized at", args[0].Int(), "Hz")
	return nil
}

// wasmKeyDown(key, repeat) returns the current octave.
func wasmKeyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || dispatcher == nil {
		return nil
	}
	repeat := len(args) > 1 && args[1].Bool()
	dispatcher.HandleKey(input.KeyEvent{Key: args[0].String(), Down: true, Repeat: repeat})
	return dispatcher.Octave()
}

func wasmKeyUp(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || dispatcher == nil {
		return nil
	}
	dispatcher.HandleKey(input.KeyEvent{Key: args[0].String()})
	return nil
}

// wasmMIDINote(on, note, velocity)
func wasmMIDINote(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 || dispatcher == nil {
		return nil
	}
	ev := input.MIDIEvent{Status: input.MIDINoteOff, Note: args[1].Int(), Velocity: args[2].Int()}
	if args[0].Bool() {
		ev.Status = input.MIDINoteOn
	}
	dispatcher.HandleMIDI(ev)
	return nil
}

// wasmBlur releases held keys when the page loses focus; browsers drop the
// keyup events in that case.
func wasmBlur(this js.Value, args []js.Value) interface{} {
	if dispatcher != nil {
		dispatcher.ReleaseAll()
	}
	return nil
}

// wasmSetRoom(decaySeconds, wet)
func wasmSetRoom(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 || stream == nil {
		return nil
	}
	var err error
	stream.WithEngine(func(e *synth.AudioEngine) {
		if decay := args[0].Float(); decay > 0 {
			err = e.Bus().SetSyntheticRoom(decay, 0.8)
		}
		e.Bus().SetRoomWet(float32(args[1].Float()))
	})
	if err != nil {
		return err.Error()
	}
	return nil
}

// wasmProcessBlock(dst Uint8Array) fills dst with little-endian float32
// frames, at most 128 per call, and returns the frame count.
func wasmProcessBlock(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || stream == nil {
		return 0
	}
	dst := args[0]
	n := min(dst.Get("byteLength").Int(), len(blockBytes))
	n, _ = stream.Read(blockBytes[:n])
	js.CopyBytesToJS(dst, blockBytes[:n])
	return n / audioout.BytesPerFrame
}
