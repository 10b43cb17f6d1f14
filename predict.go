package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/wangkuiyi/gotorch/vision/transforms"

	"goresnet/imagenet"
	"goresnet/models"
	"goresnet/train"
)

func runPredict(args []string) {
	cmd := flag.NewFlagSet("predict", flag.ExitOnError)
	load := cmd.String("load", "./resnet50.gob", "checkpoint file")
	arch := cmd.String("arch", "resnet50", "resnet50 or resnet152")
	classes := cmd.Int("classes", imagenet.NumClasses, "label space size the checkpoint was trained with")
	labelsFile := cmd.String("labels", "", "synset labels file for class names; empty prints indices")
	cmd.Parse(args)

	var labels *imagenet.Labels
	if *labelsFile != "" {
		var err error
		if labels, err = imagenet.LoadLabels(*labelsFile); err != nil {
			log.Fatal(err)
		}
	}

	model := buildModel(*arch, int64(*classes))
	if err := train.LoadStateDict(model, *load); err != nil {
		log.Fatal(err)
	}
	// Inference uses the checkpointed BatchNorm running statistics.
	model.Train(false)

	for _, pattern := range cmd.Args() {
		fns, err := filepath.Glob(pattern)
		if err != nil {
			log.Fatal(err)
		}
		for _, fn := range fns {
			if err := predictFile(fn, model, labels); err != nil {
				log.Fatal(err)
			}
		}
	}
}

// resizeEdge is the smaller-edge target before the center crop, matching the
// validation loader's Resize(256)+CenterCrop(224).
const resizeEdge = 256

// scaleToEdge returns the dimensions that bring the smaller of (w, h) to
// edge while preserving aspect ratio.
func scaleToEdge(w, h, edge int) (int, int) {
	if w <= h {
		return edge, h * edge / w
	}
	return w * edge / h, edge
}

// cropRect is the centered size-by-size crop window inside a w-by-h image.
func cropRect(w, h, size int) image.Rectangle {
	left := (w - size) / 2
	top := (h - size) / 2
	return image.Rect(left, top, left+size, top+size)
}

func predictFile(fn string, model *models.ResNetModule, labels *imagenet.Labels) error {
	img := gocv.IMRead(fn, gocv.IMReadColor)
	if img.Empty() {
		return fmt.Errorf("cannot read image %s", fn)
	}
	defer img.Close()
	// IMRead decodes to BGR; the model was trained on RGB.
	gocv.CvtColor(img, &img, gocv.ColorBGRToRGB)

	newW, newH := scaleToEdge(img.Cols(), img.Rows(), resizeEdge)
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Pt(newW, newH), 0, 0, gocv.InterpolationLinear)

	region := resized.Region(cropRect(newW, newH, imagenet.InputSize))
	cropped := region.Clone()
	region.Close()
	defer cropped.Close()

	t := transforms.ToTensor().Run(cropped)
	n := transforms.Normalize(imagenet.MeanRGB, imagenet.StdRGB).Run(t)
	in := n.View(1, 3, imagenet.InputSize, imagenet.InputSize)

	idx := model.Forward(in).Argmax(1).Item().(int64)
	if labels != nil {
		fmt.Printf("%s: %d %s\n", fn, idx, labels.Name(int(idx)))
	} else {
		fmt.Printf("%s: %d\n", fn, idx)
	}
	return nil
}
