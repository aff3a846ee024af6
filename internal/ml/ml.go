// Package ml summarizes a machine-learning project root: the libraries it
// declares, its notebooks, pipeline-stage scripts and dataset folders.
package ml

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/blackwell-systems/devinsight/internal/detect"
	"github.com/blackwell-systems/devinsight/internal/scanner"
)

// Module is the analysis of one ML root.
type Module struct {
	Root                 string   `json:"root"`
	HasPython            bool     `json:"hasPython"`
	HasNotebooks         bool     `json:"hasNotebooks"`
	Libs                 []string `json:"libs"`
	TrainingScripts      []string `json:"trainingScripts"`
	InferenceScripts     []string `json:"inferenceScripts"`
	PreprocessingScripts []string `json:"preprocessingScripts"`
	EvaluationScripts    []string `json:"evaluationScripts"`
	DatasetFolders       []string `json:"datasetFolders"`
	Notebooks            []string `json:"notebooks"`
	PipelineExplanation  string   `json:"pipelineExplanation"`
}

// Relevant reports whether the root shows any sign of ML work.
func (m Module) Relevant() bool {
	return m.HasPython || m.HasNotebooks || len(m.Libs) > 0
}

const (
	maxScripts        = 80
	maxNotebooks      = 100
	keptNotebooks     = 50
	narrativeNotebook = 10
	narrativeScripts  = 5
)

var (
	dataDirs           = []string{"data", "datasets", "dataset", "raw_data", "data/raw", "inputs"}
	trainKeywords      = []string{"train", "training", "fit", "train_model"}
	inferKeywords      = []string{"inference", "infer", "predict", "serve"}
	preprocessKeywords = []string{"preprocess", "preprocessing", "transform", "prepare_data", "load_data"}
	evalKeywords       = []string{"eval", "evaluate", "evaluation", "metrics"}
)

// libSignatures maps lowercased dependency names to library labels, in
// report order.
var libSignatures = []struct {
	label string
	match func(dep string) bool
}{
	{"TensorFlow", func(d string) bool { return strings.Contains(d, "tensorflow") || d == "tf" }},
	{"PyTorch", func(d string) bool { return strings.Contains(d, "torch") || d == "pytorch" }},
	{"Scikit-learn", func(d string) bool { return strings.Contains(d, "sklearn") || strings.Contains(d, "scikit-learn") }},
	{"Keras", func(d string) bool { return strings.Contains(d, "keras") && !strings.Contains(d, "tensorflow") }},
	{"XGBoost", func(d string) bool { return strings.Contains(d, "xgboost") }},
	{"Pandas", func(d string) bool { return strings.Contains(d, "pandas") }},
	{"NumPy", func(d string) bool { return strings.Contains(d, "numpy") }},
}

// Empty returns the module reported for a root that cannot be analyzed.
func Empty(root string) Module {
	return Module{
		Root:                 root,
		Libs:                 []string{},
		TrainingScripts:      []string{},
		InferenceScripts:     []string{},
		PreprocessingScripts: []string{},
		EvaluationScripts:    []string{},
		DatasetFolders:       []string{},
		Notebooks:            []string{},
	}
}

// Analyze inspects the ML project at root. files is the root's relative
// file list with ignored directories already removed.
func Analyze(ctx context.Context, root string, files []string) (m Module) {
	defer func() {
		if r := recover(); r != nil {
			m = Empty(root)
		}
	}()
	if !scanner.IsDir(root, ".") || ctx.Err() != nil {
		return Empty(root)
	}

	notebooks := findNotebooks(files)
	m = Module{
		Root:                 root,
		HasNotebooks:         len(notebooks) > 0,
		Libs:                 Libs(detect.ReadPythonDeps(root)),
		TrainingScripts:      scripts(files, trainKeywords),
		InferenceScripts:     scripts(files, inferKeywords),
		PreprocessingScripts: scripts(files, preprocessKeywords),
		EvaluationScripts:    scripts(files, evalKeywords),
		DatasetFolders:       datasetFolders(root),
		Notebooks:            notebooks,
	}
	m.HasPython = scanner.Exists(root, "requirements.txt") ||
		scanner.Exists(root, "pyproject.toml") ||
		m.HasNotebooks ||
		hasRootPython(files)
	m.PipelineExplanation = pipeline(m)
	if len(m.Notebooks) > keptNotebooks {
		m.Notebooks = m.Notebooks[:keptNotebooks]
	}
	return m
}

// Libs maps dependency names to known ML library labels.
func Libs(deps []string) []string {
	libs := []string{}
	for _, sig := range libSignatures {
		for _, d := range deps {
			if sig.match(strings.ToLower(d)) {
				libs = append(libs, sig.label)
				break
			}
		}
	}
	return libs
}

func findNotebooks(files []string) []string {
	out := []string{}
	for _, f := range files {
		if len(out) >= maxNotebooks {
			break
		}
		if scanner.HasExt(f, ".ipynb") {
			out = append(out, f)
		}
	}
	return out
}

// scripts returns the .py files whose lowercased name contains one of
// keywords.
func scripts(files []string, keywords []string) []string {
	out := []string{}
	for _, f := range files {
		if len(out) >= maxScripts {
			break
		}
		if !scanner.HasExt(f, ".py") {
			continue
		}
		name := strings.ToLower(path.Base(f))
		for _, k := range keywords {
			if strings.Contains(name, k) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func datasetFolders(root string) []string {
	seen := make(map[string]bool)
	out := []string{}
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	for _, d := range dataDirs {
		if scanner.IsDir(root, d) {
			add(d)
		}
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return out
	}
	for _, e := range entries {
		if e.IsDir() && strings.Contains(strings.ToLower(e.Name()), "data") {
			add(e.Name())
		}
	}
	return out
}

func hasRootPython(files []string) bool {
	for _, f := range files {
		if !strings.Contains(f, "/") && scanner.HasExt(f, ".py") {
			return true
		}
	}
	return false
}

const scriptsNotDetected = "scripts not detected"

func pipeline(m Module) string {
	var sb strings.Builder
	sb.WriteString("ML pipeline (typical flow):\n")
	data := "not detected"
	if len(m.DatasetFolders) > 0 {
		data = strings.Join(m.DatasetFolders, ", ")
	}
	fmt.Fprintf(&sb, "1. Data: %s\n", data)
	fmt.Fprintf(&sb, "2. Preprocessing: %s\n", stage(m.PreprocessingScripts))
	fmt.Fprintf(&sb, "3. Training: %s\n", stage(m.TrainingScripts))
	fmt.Fprintf(&sb, "4. Evaluation: %s\n", stage(m.EvaluationScripts))
	fmt.Fprintf(&sb, "5. Inference: %s\n", stage(m.InferenceScripts))
	if len(m.Notebooks) > 0 {
		shown, suffix := m.Notebooks, ""
		if len(shown) > narrativeNotebook {
			shown, suffix = shown[:narrativeNotebook], "..."
		}
		fmt.Fprintf(&sb, "Notebooks: %s%s\n", strings.Join(shown, ", "), suffix)
	}
	return sb.String()
}

func stage(found []string) string {
	if len(found) == 0 {
		return scriptsNotDetected
	}
	if len(found) > narrativeScripts {
		found = found[:narrativeScripts]
	}
	return strings.Join(found, ", ")
}
