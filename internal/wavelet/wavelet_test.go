package wavelet_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tremor/internal/wavelet"
)

var _ = Describe("Ricker", func() {
	const (
		amp  = 10.0
		fcut = 25.0
	)

	center := 2 * math.Sqrt(math.Pi) / fcut

	It("reaches -amp at the causal center time", func() {
		w := wavelet.NewRicker(amp, fcut)
		Expect(w.Amplitude(center)).To(BeNumerically("~", -amp, 1e-9))
	})

	It("is near zero at time zero", func() {
		w := wavelet.NewRicker(amp, fcut)
		Expect(math.Abs(w.Amplitude(0))).To(BeNumerically("<", 1e-3*amp))
	})

	It("is symmetric about the center", func() {
		w := wavelet.NewRicker(amp, fcut)
		for _, dt := range []float64{0.001, 0.01, 0.02} {
			Expect(w.Amplitude(center + dt)).To(BeNumerically("~", w.Amplitude(center-dt), 1e-9))
		}
	})

	It("decays to zero away from the center", func() {
		w := wavelet.NewRicker(amp, fcut)
		Expect(math.Abs(w.Amplitude(center + 1.0))).To(BeNumerically("<", 1e-9))
	})

	It("shifts with the user delay", func() {
		w := wavelet.NewRicker(amp, fcut)
		d := &wavelet.Ricker{Amp: amp, FCut: fcut, Delay: 0.05}
		Expect(d.Amplitude(center + 0.05)).To(BeNumerically("~", w.Amplitude(center), 1e-9))
	})
})

var _ = Describe("Gaussian", func() {
	const (
		amp  = 2.0
		fcut = 15.0
	)

	center := 2 * math.Sqrt(math.Pi) / fcut

	It("peaks at the causal center time", func() {
		w := wavelet.NewGaussian(amp, fcut)
		peak := w.Amplitude(center)
		Expect(peak).To(BeNumerically(">", 0))
		Expect(w.Amplitude(center + 0.01)).To(BeNumerically("<", peak))
		Expect(w.Amplitude(center - 0.01)).To(BeNumerically("<", peak))
	})

	It("matches the analytic peak value", func() {
		w := wavelet.NewGaussian(amp, fcut)
		fc := fcut / (3 * math.Sqrt(math.Pi))
		want := amp / (2 * math.Pi * (math.Pi * fc) * (math.Pi * fc))
		Expect(w.Amplitude(center)).To(BeNumerically("~", want, 1e-12))
	})

	It("is strictly positive", func() {
		w := wavelet.NewGaussian(amp, fcut)
		for _, t := range []float64{0, center / 2, center, 2 * center} {
			Expect(w.Amplitude(t)).To(BeNumerically(">", 0))
		}
	})
})
