package expense_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	expenseDatamodel "github.com/frahmantamala/payable/internal/core/datamodel/expense"
	"github.com/frahmantamala/payable/internal/expense"
)

var _ = Describe("PeriodRange", func() {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	DescribeTable("period views",
		func(period string, want expenseDatamodel.DateRange) {
			got, err := expense.PeriodRange(period, now)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(want))
		},
		Entry("all", "", expenseDatamodel.DateRange{}),
		Entry("daily", "daily", expenseDatamodel.DateRange{From: "2024-03-15", To: "2024-03-15"}),
		Entry("weekly", "weekly", expenseDatamodel.DateRange{From: "2024-03-08", To: "2024-03-15"}),
		Entry("monthly", "monthly", expenseDatamodel.DateRange{From: "2024-03-01", To: "2024-03-31"}),
		Entry("yearly", "yearly", expenseDatamodel.DateRange{From: "2024-01-01", To: "2024-12-31"}),
	)

	It("rejects an unknown period", func() {
		_, err := expense.PeriodRange("fortnightly", now)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Summarize", func() {
	It("returns zeroes for no expenses", func() {
		stats := expense.Summarize(nil)
		Expect(stats.TotalExpenses).To(BeZero())
		Expect(stats.ByCategory).To(BeEmpty())
	})

	It("keeps unpaid as total minus paid", func() {
		stats := expense.Summarize([]*expense.Expense{
			{Category: "Travel", Status: expense.StatusPaid, Amount: 10, Date: "2024-01-01"},
			{Category: "Travel", Status: expense.StatusNotPaid, Amount: 5, Date: "2024-01-02"},
		})
		Expect(stats.UnpaidExpenses).To(Equal(stats.TotalExpenses - stats.PaidExpenses))
		Expect(stats.UnpaidAmount).To(BeNumerically("==", 5))
	})
})
