package service

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/joshi-parwaaz/invoice-fraud-detector/config"
	"github.com/joshi-parwaaz/invoice-fraud-detector/utils"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Operator 单个篡改算子：固定效果类别，随机化位置和参数
type Operator struct {
	Name  string
	Apply func(img *gocv.Mat, rng *rand.Rand)
}

// PerturbationSet 持有六种篡改算子及文字渲染设置
type PerturbationSet struct {
	font      gocv.HersheyFont
	fontScale float64
}

var hersheyFaces = map[string]gocv.HersheyFont{
	"simplex":        gocv.FontHersheySimplex,
	"plain":          gocv.FontHersheyPlain,
	"duplex":         gocv.FontHersheyDuplex,
	"complex":        gocv.FontHersheyComplex,
	"triplex":        gocv.FontHersheyTriplex,
	"complex_small":  gocv.FontHersheyComplexSmall,
	"script_simplex": gocv.FontHersheyScriptSimplex,
	"script_complex": gocv.FontHersheyScriptComplex,
}

var (
	colorBlack = color.RGBA{0, 0, 0, 0}
	colorWhite = color.RGBA{255, 255, 255, 0}
	colorRed   = color.RGBA{255, 0, 0, 0}

	shapeColors = []color.RGBA{
		{0, 0, 255, 0},     // blue
		{128, 0, 128, 0},   // purple
		{128, 128, 128, 0}, // grey
	}
)

func NewPerturbationSet(cfg *config.TamperConfig) *PerturbationSet {
	face, ok := hersheyFaces[cfg.FontFace]
	if !ok {
		// 字体名不可用时静默退回默认字体，绝不中断生成
		utils.Logger.Debug("unknown font face, falling back to simplex",
			zap.String("font_face", cfg.FontFace))
		face = gocv.FontHersheySimplex
	}

	scale := cfg.FontScale
	if scale <= 0 {
		scale = 0.8
	}

	return &PerturbationSet{
		font:      face,
		fontScale: scale,
	}
}

// Operators 返回固定顺序的六算子集合
func (p *PerturbationSet) Operators() []Operator {
	return []Operator{
		{Name: "black_box", Apply: p.blackBox},
		{Name: "fake_text", Apply: p.fakeText},
		{Name: "blur_patch", Apply: p.blurPatch},
		{Name: "whiteout", Apply: p.whiteout},
		{Name: "shape_overlay", Apply: p.shapeOverlay},
		{Name: "fake_signature", Apply: p.fakeSignature},
	}
}

// blackBox 在随机位置绘制实心黑色矩形，模拟遮挡
func (p *PerturbationSet) blackBox(img *gocv.Mat, rng *rand.Rand) {
	w, h := img.Cols(), img.Rows()
	x1 := randBetween(rng, 50, w/2)
	y1 := randBetween(rng, 50, h/2)
	x2 := x1 + randBetween(rng, 50, 150)
	y2 := y1 + randBetween(rng, 20, 50)
	gocv.Rectangle(img, image.Rect(x1, y1, x2, y2), colorBlack, -1)
}

// fakeText 在随机位置叠加红色伪造文字
func (p *PerturbationSet) fakeText(img *gocv.Mat, rng *rand.Rand) {
	w, h := img.Cols(), img.Rows()
	x := randBetween(rng, 100, w-150)
	y := randBetween(rng, 100, h-50)
	gocv.PutText(img, "FAKE $999", image.Pt(x, y), p.font, p.fontScale, colorRed, 2)
}

// blurPatch 对 150x50 区域做高斯模糊后原位写回，模拟局部涂抹
func (p *PerturbationSet) blurPatch(img *gocv.Mat, rng *rand.Rand) {
	w, h := img.Cols(), img.Rows()
	x := randBetween(rng, 50, w-200)
	y := randBetween(rng, 50, h-100)

	pw, ph := 150, 50
	if x+pw > w {
		pw = w - x
	}
	if y+ph > h {
		ph = h - y
	}
	if pw <= 0 || ph <= 0 {
		return
	}

	region := img.Region(image.Rect(x, y, x+pw, y+ph))
	defer region.Close()

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(region, &blurred, image.Pt(0, 0), 5, 5, gocv.BorderDefault)
	blurred.CopyTo(&region)
}

// whiteout 在随机位置绘制实心白色矩形，模拟涂改液擦除
func (p *PerturbationSet) whiteout(img *gocv.Mat, rng *rand.Rand) {
	w, h := img.Cols(), img.Rows()
	x1 := randBetween(rng, 100, w-200)
	y1 := randBetween(rng, 100, h-100)
	x2 := x1 + randBetween(rng, 80, 150)
	y2 := y1 + randBetween(rng, 20, 40)
	gocv.Rectangle(img, image.Rect(x1, y1, x2, y2), colorWhite, -1)
}

// shapeOverlay 叠加随机颜色的椭圆或矩形异物
func (p *PerturbationSet) shapeOverlay(img *gocv.Mat, rng *rand.Rand) {
	w, h := img.Cols(), img.Rows()
	x := randBetween(rng, 50, w-100)
	y := randBetween(rng, 50, h-100)
	size := randBetween(rng, 30, 60)
	c := shapeColors[rng.Intn(len(shapeColors))]

	if rng.Intn(2) == 0 {
		half := size / 2
		gocv.Ellipse(img, image.Pt(x+half, y+half), image.Pt(half, half), 0, 0, 360, c, -1)
	} else {
		gocv.Rectangle(img, image.Rect(x, y, x+size, y+size), c, -1)
	}
}

// fakeSignature 在底部区域绘制三条带纵向抖动的折线，模拟手写签名
func (p *PerturbationSet) fakeSignature(img *gocv.Mat, rng *rand.Rand) {
	w, h := img.Cols(), img.Rows()
	x := randBetween(rng, 100, w-200)
	y := randBetween(rng, h-150, h-80)

	for s := 0; s < 3; s++ {
		prev := image.Pt(x, y+randBetween(rng, -10, 10))
		for i := 1; i < 5; i++ {
			next := image.Pt(x+i*15, y+randBetween(rng, -10, 10))
			gocv.Line(img, prev, next, colorBlack, 2)
			prev = next
		}
	}
}

// randBetween 返回 [lo, hi] 内的随机整数；范围倒置（图片过小）时取下界
func randBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
