package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Receipt", func() {
	Describe("OverallConfidence", func() {
		It("should weight the total twice as much as the other fields", func() {
			r := Receipt{Confidence: Confidence{MerchantName: 50, Total: 100, Tax: 100, Items: 70}}
			Expect(r.OverallConfidence()).To(Equal(84))
		})

		It("should ignore fields that scored zero", func() {
			r := Receipt{Confidence: Confidence{Total: 30}}
			Expect(r.OverallConfidence()).To(Equal(30))
		})

		It("should be zero when nothing scored", func() {
			Expect(Receipt{}.OverallConfidence()).To(Equal(0))
		})
	})

	DescribeTable("Plausible",
		func(r Receipt, expected bool) {
			Expect(r.Plausible()).To(Equal(expected))
		},
		Entry("consistent", Receipt{Total: 10.80, Tax: 0.80, Subtotal: 10}, true),
		Entry("no total", Receipt{}, false),
		Entry("total too large", Receipt{Total: 12000}, false),
		Entry("tax above total", Receipt{Total: 5, Tax: 6}, false),
		Entry("subtotal above total", Receipt{Total: 5, Subtotal: 6}, false),
	)

	Describe("reconcile", func() {
		It("should derive subtotal and tax rate from total and tax", func() {
			r := Receipt{Total: 100, Tax: 8}
			New().reconcile(&r)
			Expect(r.Subtotal).To(Equal(92.0))
			Expect(r.TaxRate).To(BeNumerically("~", 8.70, 0.01))
		})

		It("should keep an extracted subtotal", func() {
			r := Receipt{Total: 100, Tax: 8, Subtotal: 90}
			New().reconcile(&r)
			Expect(r.Subtotal).To(Equal(90.0))
			Expect(r.TaxRate).To(BeNumerically("~", 8.89, 0.01))
		})

		It("should leave the rate at zero without tax", func() {
			r := Receipt{Total: 100}
			New().reconcile(&r)
			Expect(r.Subtotal).To(BeZero())
			Expect(r.TaxRate).To(BeZero())
		})
	})

	Describe("fallbackAmounts", func() {
		It("should read misread currency glyphs and spaced decimals", func() {
			amounts := fallbackAmounts("Paid €12.30 and ¢4.10\nCash 45 . 00\nRef 2500.00")
			Expect(amounts).To(ContainElements(12.30, 4.10, 45.0))
			Expect(amounts).NotTo(ContainElement(2500.0))
		})
	})
})
