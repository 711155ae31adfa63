package profile

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gainctl/internal/gain"
)

var _ = Describe("Store", func() {
	var (
		store    *Store
		position *gain.Profile
		velocity *gain.Profile
	)

	BeforeEach(func() {
		position = gain.NewProfile(1, 0, 0, 0, 0.5)
		velocity = gain.NewProfile(2, 0, 0, 0, 1.0)
		var err error
		store, err = New(position, velocity)
		Expect(err).NotTo(HaveOccurred())
	})

	Context("construction", func() {
		It("selects slot 0", func() {
			Expect(store.Current()).To(Equal(0))
			Expect(store.Valid()).To(BeTrue())
		})

		It("rejects an empty profile list", func() {
			_, err := New()
			Expect(err).To(MatchError(ErrNoProfiles))
		})

		It("rejects nil profiles", func() {
			_, err := New(position, nil)
			Expect(errors.Is(err, ErrNilProfile)).To(BeTrue())
		})
	})

	Context("lookup", func() {
		It("returns the profile at a valid index", func() {
			p, err := store.Profile(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeIdenticalTo(velocity))
		})

		DescribeTable("fails outside [0, N)",
			func(index int) {
				_, err := store.Profile(index)
				Expect(errors.Is(err, ErrIndexOutOfRange)).To(BeTrue())
			},
			Entry("negative", -1),
			Entry("length", 2),
			Entry("far past the end", 100),
		)

		It("looks up by mode", func() {
			p, err := store.ProfileFor(Velocity)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeIdenticalTo(velocity))

			_, err = store.ProfileFor(Acceleration)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("selection", func() {
		It("leaves every in-range index valid", func() {
			for i := 0; i < store.Len(); i++ {
				store.Select(i)
				Expect(store.Valid()).To(BeTrue())
				Expect(store.Current()).To(Equal(i))
			}
		})

		It("is idempotent", func() {
			Expect(store.Select(1)).To(BeTrue())
			Expect(store.Select(1)).To(BeFalse())
		})

		It("treats the disabled sentinel as invalid", func() {
			Expect(store.Select(Disabled)).To(BeTrue())
			Expect(store.Valid()).To(BeFalse())
			_, ok := store.CurrentProfile()
			Expect(ok).To(BeFalse())
			_, ok = store.CurrentMode()
			Expect(ok).To(BeFalse())
		})

		It("stores out-of-range indices without failing", func() {
			Expect(store.Select(7)).To(BeTrue())
			Expect(store.Current()).To(Equal(7))
			Expect(store.Valid()).To(BeFalse())
		})

		It("reports the current profile and mode", func() {
			store.SelectMode(Velocity)
			p, ok := store.CurrentProfile()
			Expect(ok).To(BeTrue())
			Expect(p).To(BeIdenticalTo(velocity))
			m, ok := store.CurrentMode()
			Expect(ok).To(BeTrue())
			Expect(m).To(Equal(Velocity))
		})

		It("re-enables by selecting a valid slot again", func() {
			store.Disable()
			Expect(store.Select(0)).To(BeTrue())
			Expect(store.Valid()).To(BeTrue())
		})
	})
})

var _ = Describe("Mode", func() {
	It("round-trips names", func() {
		for _, m := range []Mode{Position, Velocity, Acceleration} {
			parsed, err := ParseMode(m.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(m))
		}
	})

	It("rejects unknown names", func() {
		_, err := ParseMode("torque")
		Expect(err).To(HaveOccurred())
	})
})
