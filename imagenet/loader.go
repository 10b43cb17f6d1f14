package imagenet

import (
	"github.com/wangkuiyi/gotorch/vision/imageloader"
	"github.com/wangkuiyi/gotorch/vision/transforms"
)

// Vocabulary scans a training archive and returns the label vocabulary the
// loaders index into. Keys are the wnid directory names inside the archive.
func Vocabulary(tgz string) (map[string]int, error) {
	return imageloader.BuildLabelVocabularyFromTgz(tgz)
}

// TrainLoader streams shuffled training minibatches from a tar.gz archive
// whose entries are <wnid>/<file>.JPEG. Samples come out as normalized
// 3x224x224 tensors with the usual random augmentation.
func TrainLoader(tgz string, vocab map[string]int, batchSize, bufSize int, seed int64, pinMemory bool) (*imageloader.ImageLoader, error) {
	trans := transforms.Compose(
		transforms.RandomResizedCrop(InputSize),
		transforms.RandomHorizontalFlip(0.5),
		transforms.ToTensor(),
		transforms.Normalize(MeanRGB, StdRGB))
	return imageloader.New(tgz, vocab, trans, batchSize, bufSize, seed, pinMemory, "rgb")
}

// ValLoader streams validation minibatches. No random augmentation, just the
// deterministic resize-and-center-crop.
func ValLoader(tgz string, vocab map[string]int, batchSize, bufSize int, seed int64, pinMemory bool) (*imageloader.ImageLoader, error) {
	trans := transforms.Compose(
		transforms.Resize(256),
		transforms.CenterCrop(InputSize),
		transforms.ToTensor(),
		transforms.Normalize(MeanRGB, StdRGB))
	return imageloader.New(tgz, vocab, trans, batchSize, bufSize, seed, pinMemory, "rgb")
}
