//go:build js && wasm

package main

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"sort"
	"syscall/js"
	"time"

	critstudy "github.com/lucasjlepore/crit-study"
	"github.com/lucasjlepore/crit-study/pipeline"
)

func main() {
	js.Global().Set("analyzeFits", js.FuncOf(analyzeFits))
	select {}
}

// analyzeFits takes an array of {name, bytes} objects and an options object
// and returns the run artifacts as a zip.
func analyzeFits(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return map[string]any{
			"ok":    false,
			"error": "expected arguments: files(Array<{name, bytes}>), options(object)",
		}
	}
	filesArg := args[0]
	optsArg := args[1]
	if filesArg.IsUndefined() || filesArg.IsNull() || filesArg.Get("length").Int() == 0 {
		return map[string]any{
			"ok":    false,
			"error": "at least one activity file is required",
		}
	}

	inputs := make([]pipeline.BytesInput, 0, filesArg.Get("length").Int())
	for i := 0; i < filesArg.Get("length").Int(); i++ {
		entry := filesArg.Index(i)
		data := entry.Get("bytes")
		if data.IsUndefined() || data.IsNull() || data.Get("length").Int() == 0 {
			continue
		}
		buf := make([]byte, data.Get("length").Int())
		if n := js.CopyBytesToGo(buf, data); n == 0 {
			return map[string]any{
				"ok":    false,
				"error": "failed to read activity bytes from JS input",
			}
		}
		inputs = append(inputs, pipeline.BytesInput{
			Name: getString(entry, "name", fmt.Sprintf("activity_%02d.fit", i+1)),
			Data: buf,
		})
	}

	params := critstudy.DefaultParameters()
	if v := getFloat(optsArg, "cp_w"); v > 0 {
		params.CPWatts = v
	}
	if v := getFloat(optsArg, "w_prime_kj"); v > 0 {
		params.WPrimeJoules = v * 1000
	}
	if v := getFloat(optsArg, "threshold_factor"); v > 0 {
		params.ThresholdFactor = v
	}

	result, err := pipeline.RunBytes(context.Background(), pipeline.BytesOptions{
		Inputs: inputs,
		Params: params,
		Window: critstudy.Window{
			StartS: getFloat(optsArg, "window_start_s"),
			EndS:   getFloat(optsArg, "window_end_s"),
		},
		Format: getString(optsArg, "format", "csv"),
	})
	if err != nil {
		return map[string]any{
			"ok":    false,
			"error": err.Error(),
		}
	}

	zipBytes, err := zipArtifacts(result.Files)
	if err != nil {
		return map[string]any{
			"ok":    false,
			"error": fmt.Sprintf("create zip: %v", err),
		}
	}
	payload := js.Global().Get("Uint8Array").New(len(zipBytes))
	js.CopyBytesToJS(payload, zipBytes)

	fileNames := make([]string, 0, len(result.Files))
	for name := range result.Files {
		fileNames = append(fileNames, name)
	}
	sort.Strings(fileNames)

	return map[string]any{
		"ok":       true,
		"run_id":   result.RunID,
		"zip":      payload,
		"notes":    critstudy.BuildCombinedNotes(result.Combined, params),
		"warnings": stringsToAny(result.Warnings),
		"files":    stringsToAny(fileNames),
	}
}

func zipArtifacts(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fixedTime := time.Unix(0, 0).UTC()

	for _, name := range names {
		h := &zip.FileHeader{
			Name:   name,
			Method: zip.Deflate,
		}
		h.SetModTime(fixedTime)
		w, err := zw.CreateHeader(h)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(files[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func getString(v js.Value, key, fallback string) string {
	if v.IsUndefined() || v.IsNull() {
		return fallback
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() {
		return fallback
	}
	s := out.String()
	if s == "" || s == "undefined" || s == "null" {
		return fallback
	}
	return s
}

func getFloat(v js.Value, key string) float64 {
	if v.IsUndefined() || v.IsNull() {
		return 0
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() || out.Type() != js.TypeNumber {
		return 0
	}
	return out.Float()
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
