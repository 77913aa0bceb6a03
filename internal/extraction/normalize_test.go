package extraction

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NormalizeLines", func() {
	var (
		raw   string
		lines []string
	)

	JustBeforeEach(func() {
		lines = NormalizeLines(raw)
	})

	When("the text has blank lines and CRLF endings", func() {
		BeforeEach(func() {
			raw = "  Joe's Diner \r\n\r\n Burger $8.00\n\n   \nTotal $8.00  "
		})

		It("should trim and drop empty lines", func() {
			Expect(lines).To(Equal([]string{"Joe's Diner", "Burger $8.00", "Total $8.00"}))
		})
	})

	When("the text uses full-width characters", func() {
		BeforeEach(func() {
			raw = "ＴＯＴＡＬ １２.５０"
		})

		It("should fold them to ASCII", func() {
			Expect(lines).To(Equal([]string{"TOTAL 12.50"}))
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			raw = ""
		})

		It("should return no lines", func() {
			Expect(lines).To(BeEmpty())
		})
	})

	When("OCR returned one run-on line with product codes", func() {
		BeforeEach(func() {
			raw = "HOME DEPOT STORE 1234 ATLANTA GA 100012345678 HAMMER CLAW 16OZ 24.97 " +
				"200098765432 SCREWDRIVER SET 12.98 SUBTOTAL 37.95 SALES TAX 2.66 TOTAL 40.61"
		})

		It("should split before codes and after prices", func() {
			Expect(lines).To(Equal([]string{
				"HOME DEPOT STORE 1234 ATLANTA GA",
				"100012345678 HAMMER CLAW 16OZ 24.97",
				"200098765432 SCREWDRIVER SET 12.98",
				"SUBTOTAL 37.95",
				"SALES TAX 2.66",
				"TOTAL 40.61",
			}))
		})
	})

	When("OCR returned one run-on line with wide gaps after prices", func() {
		BeforeEach(func() {
			raw = "Fresh bakery order for the weekend market 4.50    2 sourdough loaves and seeded rye 6.25    3 almond croissant boxes"
		})

		It("should split on the gaps", func() {
			Expect(lines).To(Equal([]string{
				"Fresh bakery order for the weekend market 4.50",
				"2 sourdough loaves and seeded rye 6.25",
				"3 almond croissant boxes",
			}))
		})
	})

	When("no pattern splits the run-on line but prices are present", func() {
		BeforeEach(func() {
			raw = "Misc purchase list 12.50 #4411 more words here 7.25 #5521 and yet more descriptive words 3.10 #6633 end of the list"
		})

		It("should force segments at every price", func() {
			Expect(lines).To(Equal([]string{
				"Misc purchase list",
				"12.50 #4411 more words here",
				"7.25 #5521 and yet more descriptive words",
				"3.10 #6633 end of the list",
			}))
		})
	})

	When("the run-on line has nothing to split on", func() {
		BeforeEach(func() {
			raw = strings.Repeat("lorem ipsum ", 12)
		})

		It("should keep the single line", func() {
			Expect(lines).To(HaveLen(1))
		})
	})

	When("a long line is not the only line", func() {
		BeforeEach(func() {
			raw = "Header\n" + strings.Repeat("WIDGET 1.00 ", 12)
		})

		It("should not try to split", func() {
			Expect(lines).To(HaveLen(2))
		})
	})
})
