package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Field extractors", func() {
	var engine *Engine

	BeforeEach(func() {
		engine = New()
	})

	Describe("extractMerchant", func() {
		var (
			lines     []string
			candidate Candidate[string]
			found     bool
		)

		JustBeforeEach(func() {
			candidate, found = engine.extractMerchant(lines)
		})

		When("the name is preceded by contact details", func() {
			BeforeEach(func() {
				lines = []string{"(555) 123-4567", "www.joesdiner.com", "123 Main St", "Joe's Diner", "Burger $8.00"}
			})

			It("should skip the metadata lines", func() {
				Expect(found).To(BeTrue())
				Expect(candidate.Value).To(Equal("Joe's Diner"))
				Expect(candidate.Line).To(Equal(3))
				Expect(candidate.Confidence).To(Equal(50))
			})
		})

		When("the name carries a business suffix", func() {
			BeforeEach(func() {
				lines = []string{"|| Corner Market ||"}
			})

			It("should clean the name and raise confidence", func() {
				Expect(candidate.Value).To(Equal("Corner Market"))
				Expect(candidate.Confidence).To(Equal(70))
			})
		})

		When("the name starts with digits", func() {
			BeforeEach(func() {
				lines = []string{"7-ELEVEN STORE 42"}
			})

			It("should strip the leading noise and penalise the digits", func() {
				Expect(candidate.Value).To(Equal("ELEVEN STORE 42"))
				Expect(candidate.Confidence).To(Equal(60))
			})
		})

		When("the only candidate is a weekday header", func() {
			BeforeEach(func() {
				lines = []string{"Saturday 10:41 AM", "Receipt #2231"}
			})

			It("should find nothing", func() {
				Expect(found).To(BeFalse())
			})
		})

		When("the name appears after the scan window", func() {
			BeforeEach(func() {
				lines = []string{"1.00", "2.00", "3.00", "4.00", "5.00", "6.00", "7.00", "8.00", "Late Name"}
			})

			It("should not be considered", func() {
				Expect(found).To(BeFalse())
			})
		})
	})

	Describe("extractTotal", func() {
		var (
			lines     []string
			candidate Candidate[float64]
			found     bool
		)

		JustBeforeEach(func() {
			candidate, found = engine.extractTotal(lines)
		})

		When("a literal total has a dollar sign", func() {
			BeforeEach(func() {
				lines = []string{"Subtotal 10.00", "Tax 0.80", "Total $10.80"}
			})

			It("should pick the total line", func() {
				Expect(found).To(BeTrue())
				Expect(candidate.Value).To(Equal(10.80))
				Expect(candidate.Line).To(Equal(2))
				Expect(candidate.Confidence).To(Equal(100))
			})
		})

		When("the total is an OCR misread", func() {
			BeforeEach(func() {
				lines = []string{"T0TAL 22.50"}
			})

			It("should match with lower confidence", func() {
				Expect(candidate.Value).To(Equal(22.50))
				Expect(candidate.Confidence).To(Equal(60))
			})
		})

		When("a sub total line precedes a grand total", func() {
			BeforeEach(func() {
				lines = []string{"Sub Total 11.00", "Grand Total 12.00"}
			})

			It("should ignore the sub total", func() {
				Expect(candidate.Value).To(Equal(12.00))
				Expect(candidate.Line).To(Equal(1))
			})
		})

		When("the amount is due with thousands separators", func() {
			BeforeEach(func() {
				lines = []string{"Amount Due: $1,250.00"}
			})

			It("should parse the amount", func() {
				Expect(candidate.Value).To(Equal(1250.0))
				Expect(candidate.Confidence).To(Equal(65))
			})
		})

		When("the amount is out of range", func() {
			BeforeEach(func() {
				lines = []string{"TOTAL 12000.00"}
			})

			It("should find nothing", func() {
				Expect(found).To(BeFalse())
			})
		})
	})

	Describe("extractSubtotal", func() {
		lines := []string{"HAMMER 24.97", "SUBTOTAL 37.95", "TOTAL 40.61"}

		It("should take the first subtotal within the total", func() {
			candidate, found := engine.extractSubtotal(lines, 40.61)
			Expect(found).To(BeTrue())
			Expect(candidate.Value).To(Equal(37.95))
			Expect(candidate.Line).To(Equal(1))
		})

		It("should reject a subtotal above the total", func() {
			_, found := engine.extractSubtotal(lines, 30)
			Expect(found).To(BeFalse())
		})
	})

	Describe("extractTax", func() {
		var (
			lines     []string
			total     float64
			candidate Candidate[float64]
			found     bool
		)

		JustBeforeEach(func() {
			candidate, found = engine.extractTax(lines, total)
		})

		When("the line carries an explicit rate", func() {
			BeforeEach(func() {
				lines = []string{"TAX 8.25% 2.00"}
				total = 26.25
			})

			It("should take the amount, not the rate", func() {
				Expect(found).To(BeTrue())
				Expect(candidate.Value).To(Equal(2.00))
				Expect(candidate.Confidence).To(Equal(100))
			})
		})

		When("the rate and its percent sign are spaced apart", func() {
			BeforeEach(func() {
				lines = []string{"TAX 8.25 % 3.30"}
				total = 43.30
			})

			It("should take the amount, not the rate", func() {
				Expect(found).To(BeTrue())
				Expect(candidate.Value).To(Equal(3.30))
			})
		})

		When("the tax is a regional tax", func() {
			BeforeEach(func() {
				lines = []string{"GST 1.25"}
				total = 26.25
			})

			It("should match it", func() {
				Expect(candidate.Value).To(Equal(1.25))
			})
		})

		When("the tax exceeds the total", func() {
			BeforeEach(func() {
				lines = []string{"Tax 30.00"}
				total = 26.25
			})

			It("should find nothing", func() {
				Expect(found).To(BeFalse())
			})
		})

		When("no total was found", func() {
			BeforeEach(func() {
				lines = []string{"Tax 1.00"}
				total = 0
			})

			It("should find nothing", func() {
				Expect(found).To(BeFalse())
			})
		})
	})

	Describe("extractDate", func() {
		DescribeTable("date formats",
			func(line, expected string) {
				candidate, found := engine.extractDate([]string{"Store", line})
				Expect(found).To(BeTrue())
				Expect(candidate.Value).To(Equal(expected))
				Expect(candidate.Line).To(Equal(1))
			},
			Entry("numeric", "Date: 03/15/2024 10:41", "03/15/2024"),
			Entry("two digit year", "15-03-24", "15-03-24"),
			Entry("month name", "March 15, 2024", "March 15, 2024"),
			Entry("ISO", "2024-03-15", "2024-03-15"),
		)

		It("should not mistake a price for a date", func() {
			_, found := engine.extractDate([]string{"Burger 12.98"})
			Expect(found).To(BeFalse())
		})
	})
})
