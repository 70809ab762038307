package train_test

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/kiln-ml/kiln/internal/checkpoint"
	"github.com/kiln-ml/kiln/internal/dataset"
	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/optim"
	"github.com/kiln-ml/kiln/internal/train"
)

// blobs builds a linearly separable two-class dataset: class 0 clusters
// around (-1, -1), class 1 around (+1, +1).
func blobs(t *testing.T, n int, seed int64) *dataset.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	images := make([][]float64, n)
	labels := make([]int, n)
	for i := range images {
		class := i % 2
		center := -1.0
		if class == 1 {
			center = 1.0
		}
		images[i] = []float64{
			center + rng.NormFloat64()*0.2,
			center + rng.NormFloat64()*0.2,
		}
		labels[i] = class
	}
	ds, err := dataset.FromSlices(images, labels)
	if err != nil {
		t.Fatalf("FromSlices: %v", err)
	}
	return ds
}

func newSession(t *testing.T) *train.Session {
	t.Helper()
	model, err := nn.NewClassifier(nn.Architecture{
		InputSize: 2, OutputSize: 2, HiddenLayers: []int{8},
	})
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.1})
	return train.NewSession(model, opt)
}

// TestTrainEpochReducesLoss trains on separable blobs and expects the loss
// to fall and the accuracy to rise well above chance.
func TestTrainEpochReducesLoss(t *testing.T) {
	session := newSession(t)
	ds := blobs(t, 200, 1)
	loader := dataset.NewLoader(ds, 16, true, 1)

	var first, last train.EpochStats
	for epoch := 0; epoch < 20; epoch++ {
		stats := session.TrainEpoch(loader)
		if epoch == 0 {
			first = stats
		}
		last = stats
	}

	if last.Loss >= first.Loss {
		t.Errorf("loss did not decrease: first %v, last %v", first.Loss, last.Loss)
	}
	if last.Accuracy < 0.95 {
		t.Errorf("accuracy = %v, want >= 0.95 on separable data", last.Accuracy)
	}
	if len(session.History) != 20 {
		t.Errorf("history has %d entries, want 20", len(session.History))
	}
	if session.History[19].Epoch != 20 {
		t.Errorf("last epoch number = %d, want 20", session.History[19].Epoch)
	}
}

// TestEvaluateDoesNotTrain: evaluation must leave parameters unchanged.
func TestEvaluateDoesNotTrain(t *testing.T) {
	session := newSession(t)
	ds := blobs(t, 50, 2)
	loader := dataset.NewLoader(ds, 10, false, 0)

	before := make(map[string][]byte)
	for name, raw := range session.Model.StateDict() {
		before[name] = append([]byte(nil), raw.Data()...)
	}

	loss, acc := session.Evaluate(loader)
	if loss <= 0 {
		t.Errorf("loss = %v, want > 0 for an untrained model", loss)
	}
	if acc < 0 || acc > 1 {
		t.Errorf("accuracy = %v, want within [0, 1]", acc)
	}

	for name, raw := range session.Model.StateDict() {
		for i, b := range raw.Data() {
			if before[name][i] != b {
				t.Fatalf("parameter %s changed during evaluation", name)
			}
		}
	}
}

// TestCheckpointRestoresPredictions: a model restored from a session
// checkpoint predicts identically to the model that wrote it.
func TestCheckpointRestoresPredictions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.kiln")
	session := newSession(t)
	ds := blobs(t, 100, 3)
	loader := dataset.NewLoader(ds, 16, true, 3)

	for epoch := 0; epoch < 5; epoch++ {
		session.TrainEpoch(loader)
	}
	if err := session.Checkpoint(path); err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	restored, err := checkpoint.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	eval := dataset.NewLoader(ds, 16, false, 0)
	wantLoss, wantAcc := session.Evaluate(eval)

	restoredSession := train.NewSession(restored, optim.NewSGD(restored.Parameters(), optim.SGDConfig{}))
	gotLoss, gotAcc := restoredSession.Evaluate(eval)

	if gotLoss != wantLoss || gotAcc != wantAcc {
		t.Errorf("restored model: loss %v acc %v, want loss %v acc %v",
			gotLoss, gotAcc, wantLoss, wantAcc)
	}
}
