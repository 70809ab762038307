// Package dataset loads MNIST-style image classification data and
// serves it to training loops in shuffled mini-batches.
package dataset

import (
	"fmt"
	"path/filepath"
)

// Dataset holds a set of flattened images and their class labels.
// Pixel values are normalized to [0, 1].
type Dataset struct {
	images [][]float64
	labels []int
	dim    int
}

// LoadMNIST reads an MNIST split from dir. The directory must contain the
// standard IDX files (train-images-idx3-ubyte etc.). If maxSamples > 0, only
// the first maxSamples examples are kept.
func LoadMNIST(dir string, train bool, maxSamples int) (*Dataset, error) {
	imgFile := "t10k-images-idx3-ubyte"
	lblFile := "t10k-labels-idx1-ubyte"
	if train {
		imgFile = "train-images-idx3-ubyte"
		lblFile = "train-labels-idx1-ubyte"
	}

	rawImages, err := readIDXImages(filepath.Join(dir, imgFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load images: %w", err)
	}
	rawLabels, err := readIDXLabels(filepath.Join(dir, lblFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	if len(rawImages) != len(rawLabels) {
		return nil, fmt.Errorf("image/label count mismatch: %d images, %d labels", len(rawImages), len(rawLabels))
	}

	n := len(rawImages)
	if maxSamples > 0 && maxSamples < n {
		n = maxSamples
	}

	images := make([][]float64, n)
	labels := make([]int, n)
	for i := 0; i < n; i++ {
		img := make([]float64, len(rawImages[i]))
		for j, px := range rawImages[i] {
			img[j] = float64(px) / 255.0
		}
		images[i] = img
		labels[i] = int(rawLabels[i])
	}

	return newDataset(images, labels)
}

// FromSlices builds a Dataset from in-memory data. All images must have the
// same length and labels must be parallel to images.
func FromSlices(images [][]float64, labels []int) (*Dataset, error) {
	return newDataset(images, labels)
}

func newDataset(images [][]float64, labels []int) (*Dataset, error) {
	if len(images) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	if len(images) != len(labels) {
		return nil, fmt.Errorf("image/label count mismatch: %d images, %d labels", len(images), len(labels))
	}
	dim := len(images[0])
	for i, img := range images {
		if len(img) != dim {
			return nil, fmt.Errorf("image %d has %d features, want %d", i, len(img), dim)
		}
	}
	return &Dataset{images: images, labels: labels, dim: dim}, nil
}

// Len returns the number of examples.
func (d *Dataset) Len() int { return len(d.images) }

// Dim returns the number of features per example.
func (d *Dataset) Dim() int { return d.dim }

// Image returns the i-th image.
func (d *Dataset) Image(i int) []float64 { return d.images[i] }

// Label returns the i-th label.
func (d *Dataset) Label(i int) int { return d.labels[i] }
