// Package models defines the residual network variants as compositions of
// gotorch layers. Architecture parameters follow the published ResNet
// family: a 7x7 stem, four stages of residual blocks, and a linear head.
package models

import (
	torch "github.com/wangkuiyi/gotorch"
	nn "github.com/wangkuiyi/gotorch/nn"
	F "github.com/wangkuiyi/gotorch/nn/functional"
)

// Block selects the residual block flavor a variant is built from.
type Block int

const (
	// Basic is the two-conv block used by the shallow variants.
	Basic Block = iota
	// Bottleneck is the 1x1/3x3/1x1 block with 4x channel expansion used
	// by ResNet-50 and deeper.
	Bottleneck
)

func (b Block) expansion() int64 {
	if b == Bottleneck {
		return 4
	}
	return 1
}

func conv3x3(in, out, stride int64) *nn.Conv2dModule {
	return nn.Conv2d(in, out, 3, stride, 1, 1, 1, false, "zeros")
}

func conv1x1(in, out, stride int64) *nn.Conv2dModule {
	return nn.Conv2d(in, out, 1, stride, 0, 1, 1, false, "zeros")
}

func batchNorm(features int64) *nn.BatchNorm2dModule {
	return nn.BatchNorm2d(features, 1e-5, 0.1, true, true)
}

// BasicBlockModule is two 3x3 convolutions with a skip connection added
// back before the final activation.
type BasicBlockModule struct {
	nn.Module
	Conv1, Conv2 *nn.Conv2dModule
	Bn1, Bn2     *nn.BatchNorm2dModule
	Downsample   *nn.SequentialModule
}

func newBasicBlock(inplanes, planes, stride int64, downsample *nn.SequentialModule) *BasicBlockModule {
	b := &BasicBlockModule{
		Conv1:      conv3x3(inplanes, planes, stride),
		Bn1:        batchNorm(planes),
		Conv2:      conv3x3(planes, planes, 1),
		Bn2:        batchNorm(planes),
		Downsample: downsample,
	}
	b.Init(b)
	return b
}

func (b *BasicBlockModule) Forward(x torch.Tensor) torch.Tensor {
	identity := x
	out := b.Conv1.Forward(x)
	out = b.Bn1.Forward(out)
	out = F.Relu(out, true)
	out = b.Conv2.Forward(out)
	out = b.Bn2.Forward(out)
	if b.Downsample != nil {
		identity = b.Downsample.Forward(x).(torch.Tensor)
	}
	out = out.Add(identity, 1)
	return F.Relu(out, true)
}

// BottleneckModule squeezes channels with a 1x1 conv, applies the 3x3, and
// expands back out by 4x before the skip addition.
type BottleneckModule struct {
	nn.Module
	Conv1, Conv2, Conv3 *nn.Conv2dModule
	Bn1, Bn2, Bn3       *nn.BatchNorm2dModule
	Downsample          *nn.SequentialModule
}

func newBottleneck(inplanes, planes, stride int64, downsample *nn.SequentialModule) *BottleneckModule {
	b := &BottleneckModule{
		Conv1:      conv1x1(inplanes, planes, 1),
		Bn1:        batchNorm(planes),
		Conv2:      conv3x3(planes, planes, stride),
		Bn2:        batchNorm(planes),
		Conv3:      conv1x1(planes, planes*4, 1),
		Bn3:        batchNorm(planes * 4),
		Downsample: downsample,
	}
	b.Init(b)
	return b
}

func (b *BottleneckModule) Forward(x torch.Tensor) torch.Tensor {
	identity := x
	out := b.Conv1.Forward(x)
	out = b.Bn1.Forward(out)
	out = F.Relu(out, true)
	out = b.Conv2.Forward(out)
	out = b.Bn2.Forward(out)
	out = F.Relu(out, true)
	out = b.Conv3.Forward(out)
	out = b.Bn3.Forward(out)
	if b.Downsample != nil {
		identity = b.Downsample.Forward(x).(torch.Tensor)
	}
	out = out.Add(identity, 1)
	return F.Relu(out, true)
}

// ResNetModule is the full network: stem, four residual stages, global
// average pool, and the classification head.
type ResNetModule struct {
	nn.Module
	Conv1                          *nn.Conv2dModule
	Bn1                            *nn.BatchNorm2dModule
	Layer1, Layer2, Layer3, Layer4 *nn.SequentialModule
	Fc                             *nn.LinearModule

	inplanes int64
	block    Block
}

// NewResNet builds a variant from its block flavor and per-stage block
// counts. numClasses sizes the classification head.
func NewResNet(block Block, layers [4]int64, numClasses int64) *ResNetModule {
	r := &ResNetModule{inplanes: 64, block: block}
	r.Conv1 = nn.Conv2d(3, 64, 7, 2, 3, 1, 1, false, "zeros")
	r.Bn1 = batchNorm(64)
	r.Layer1 = r.makeStage(64, layers[0], 1)
	r.Layer2 = r.makeStage(128, layers[1], 2)
	r.Layer3 = r.makeStage(256, layers[2], 2)
	r.Layer4 = r.makeStage(512, layers[3], 2)
	r.Fc = nn.Linear(512*block.expansion(), numClasses, true)
	r.Init(r)
	return r
}

// ResNet50 is the 50-layer variant (Bottleneck blocks 3-4-6-3).
func ResNet50(numClasses int64) *ResNetModule {
	return NewResNet(Bottleneck, [4]int64{3, 4, 6, 3}, numClasses)
}

// ResNet152 is the 152-layer variant (Bottleneck blocks 3-8-36-3).
func ResNet152(numClasses int64) *ResNetModule {
	return NewResNet(Bottleneck, [4]int64{3, 8, 36, 3}, numClasses)
}

func (r *ResNetModule) makeStage(planes, blocks, stride int64) *nn.SequentialModule {
	var downsample *nn.SequentialModule
	if stride != 1 || r.inplanes != planes*r.block.expansion() {
		downsample = nn.Sequential(
			conv1x1(r.inplanes, planes*r.block.expansion(), stride),
			batchNorm(planes*r.block.expansion()))
	}
	mods := make([]nn.IModule, 0, blocks)
	mods = append(mods, r.newBlock(r.inplanes, planes, stride, downsample))
	r.inplanes = planes * r.block.expansion()
	for i := int64(1); i < blocks; i++ {
		mods = append(mods, r.newBlock(r.inplanes, planes, 1, nil))
	}
	return nn.Sequential(mods...)
}

func (r *ResNetModule) newBlock(inplanes, planes, stride int64, downsample *nn.SequentialModule) nn.IModule {
	if r.block == Bottleneck {
		return newBottleneck(inplanes, planes, stride, downsample)
	}
	return newBasicBlock(inplanes, planes, stride, downsample)
}

// Forward maps an NCHW image batch to (batch, numClasses) logits.
func (r *ResNetModule) Forward(x torch.Tensor) torch.Tensor {
	x = r.Conv1.Forward(x)
	x = r.Bn1.Forward(x)
	x = F.Relu(x, true)
	x = F.MaxPool2d(x, []int64{3, 3}, []int64{2, 2}, []int64{1, 1}, []int64{1, 1}, false)
	x = r.Layer1.Forward(x).(torch.Tensor)
	x = r.Layer2.Forward(x).(torch.Tensor)
	x = r.Layer3.Forward(x).(torch.Tensor)
	x = r.Layer4.Forward(x).(torch.Tensor)
	x = F.AdaptiveAvgPool2d(x, []int64{1, 1})
	x = x.View(x.Shape()[0], -1)
	return r.Fc.Forward(x)
}
