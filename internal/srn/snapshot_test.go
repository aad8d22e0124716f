package srn_test

import (
	"encoding/json"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/erksrn/internal/celldata"
	"github.com/san-kum/erksrn/internal/dynamo"
	"github.com/san-kum/erksrn/internal/physics"
	"github.com/san-kum/erksrn/internal/rng"
	"github.com/san-kum/erksrn/internal/srn"
)

var _ = Describe("Snapshot", func() {
	noisy := func() physics.Params {
		p := physics.DefaultParams()
		p.EtaStd = 0.6
		p.K = 0.2
		p.ThetaVi = 0.9
		p.CellArea = 1.2
		return p
	}

	It("continues a restored driver along the original trajectory", func() {
		data := cellDataFor(noisy())
		original, err := srn.New(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(original.Initialise(data, 0)).To(Succeed())

		src := rng.NewStream(77)
		Expect(original.SimulateToCurrentTime(1.337, src)).To(Succeed())

		snap, err := original.Snapshot()
		Expect(err).NotTo(HaveOccurred())
		snapJSON, err := json.Marshal(snap)
		Expect(err).NotTo(HaveOccurred())
		streamState, err := src.MarshalBinary()
		Expect(err).NotTo(HaveOccurred())

		Expect(original.SimulateToCurrentTime(3, src)).To(Succeed())

		var decoded srn.Snapshot
		Expect(json.Unmarshal(snapJSON, &decoded)).To(Succeed())
		Expect(decoded).To(Equal(snap))

		restoredSrc := &rng.Stream{}
		Expect(restoredSrc.UnmarshalBinary(streamState)).To(Succeed())
		restored, err := srn.Restore(decoded, nil, data.Clone())
		Expect(err).NotTo(HaveOccurred())
		Expect(restored.Time()).To(Equal(1.337))

		Expect(restored.SimulateToCurrentTime(3, restoredSrc)).To(Succeed())
		Expect(restored.State()).To(Equal(original.State()))
		Expect(restoredSrc.Draws()).To(Equal(src.Draws()))
	})

	It("tags the serialised fields", func() {
		raw, err := json.Marshal(srn.Snapshot{Version: srn.SnapshotVersion, Theta: 1, Signal: 2, TargetArea: 3, Time: 4})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(raw)).To(MatchJSON(`{"version":1,"theta":1,"signal":2,"target_area":3,"time":4}`))
	})

	It("rejects unknown versions", func() {
		_, err := srn.Restore(srn.Snapshot{Version: 99}, nil, celldata.New())
		Expect(err).To(HaveOccurred())
	})

	It("refuses to snapshot a diverged state", func() {
		d, err := srn.New(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(d.Initialise(cellDataFor(noisy()), 0)).To(Succeed())
		Expect(d.SetInitialConditions(dynamo.State{0, math.NaN(), 1})).To(Succeed())

		_, err = d.Snapshot()
		Expect(err).To(MatchError(dynamo.ErrInvalidState))
	})

	It("refreshes parameters from cell data after a restore", func() {
		p := noisy()
		restored, err := srn.Restore(srn.Snapshot{Version: srn.SnapshotVersion, TargetArea: 1}, nil, cellDataFor(p))
		Expect(err).NotTo(HaveOccurred())
		Expect(restored.Params()).To(Equal(physics.DefaultParams()))

		Expect(restored.Refresh()).To(Succeed())
		Expect(restored.Params()).To(Equal(p))
		Expect(restored.Model().GetParams()).To(HaveKeyWithValue("Cell Area", p.CellArea))
	})

	It("rejects a typed nil cell store on restore", func() {
		var missing *celldata.Data
		_, err := srn.Restore(srn.Snapshot{Version: srn.SnapshotVersion}, nil, missing)
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
	})

	It("refuses to snapshot before Initialise", func() {
		d, err := srn.New(nil)
		Expect(err).NotTo(HaveOccurred())
		_, err = d.Snapshot()
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
	})
})
