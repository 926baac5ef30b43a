package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/hdrview/pkg/ecolor"
	"github.com/abworrall/hdrview/pkg/emath"
)

func paramsFor(mode RenderEffectKind, dispHdr bool) RenderParams {
	return RenderParams{
		Mode:       mode,
		WhiteScale: 2.5,
		Tonemap:    ecolor.SelectTonemapTarget(0, dispHdr, 1200, 1),
	}
}

func newBuiltBuilder(t *testing.T, h *fakeHost) *Builder {
	b := NewBuilder(h)
	require.NoError(t, b.BuildPrefix(blankImage{}, 1, ecolor.ColorProfile{Kind: ecolor.ProfileSRGB}))
	return b
}

func TestBuilderMatchesTopology(t *testing.T) {
	for _, m := range allEffects {
		for _, dispHdr := range []bool{false, true} {
			h := newFakeHost(true, true)
			b := newBuiltBuilder(t, h)
			require.NoError(t, b.Configure(paramsFor(m, dispHdr)))

			topo, err := TopologyFor(m, b.Capabilities(), dispHdr)
			require.NoError(t, err)
			assert.Equal(t, topo.String(), b.Describe())
			assert.Equal(t, topo.Kinds[topo.Output], b.Output().Kind())
		}
	}
}

func TestBuilderRoundTrip(t *testing.T) {
	for _, x := range allEffects {
		for _, y := range allEffects {
			direct := newBuiltBuilder(t, newFakeHost(true, true))
			require.NoError(t, direct.Configure(paramsFor(x, false)))

			h := newFakeHost(true, true)
			b := newBuiltBuilder(t, h)
			require.NoError(t, b.Configure(paramsFor(x, false)))
			require.NoError(t, b.Configure(paramsFor(y, false)))
			require.NoError(t, b.Configure(paramsFor(x, false)))

			assert.Equal(t, direct.Describe(), b.Describe(), "%s > %s > %s", x, y, x)

			// Nothing from the Y configuration is left alive
			topo, _ := b.Topology()
			assert.Len(t, h.live, 3+len(topo.Suffix))
		}
	}
}

func TestBuilderPrefixPersists(t *testing.T) {
	h := newFakeHost(true, true)
	b := newBuiltBuilder(t, h)
	src, cm, ws := b.Node(RoleSource), b.ColorManagement(), b.Node(RoleWhiteScale)

	require.NoError(t, b.Configure(paramsFor(EffectHdrTonemap, false)))
	tm := b.Node(RoleHdrTonemap)
	require.NotNil(t, tm)

	require.NoError(t, b.Configure(paramsFor(EffectSdrOverlay, false)))
	assert.Same(t, src, b.Node(RoleSource))
	assert.Same(t, cm, b.ColorManagement())
	assert.Same(t, ws, b.Node(RoleWhiteScale))
	assert.Nil(t, b.Node(RoleHdrTonemap))
	assert.False(t, h.live[tm.(*fakeNode)])

	// White scale was reparented onto the overlay
	assert.Same(t, b.Node(RoleSdrOverlay), ws.(*fakeNode).inputs[0])
}

func TestBuilderProperties(t *testing.T) {
	h := newFakeHost(true, true)
	b := newBuiltBuilder(t, h)

	p := paramsFor(EffectHdrTonemap, false)
	require.NoError(t, b.Configure(p))

	ws := b.Node(RoleWhiteScale).(*fakeNode)
	assert.Equal(t, ecolor.ScaleMatrix(2.5), ws.props[PropColorMatrix])

	tm := b.Node(RoleHdrTonemap).(*fakeNode)
	assert.Equal(t, 80.0, tm.props[PropOutputMaxLuminance])
	assert.Equal(t, 1200.0, tm.props[PropInputMaxLuminance])
	assert.Equal(t, ecolor.TonemapSDR, tm.props[PropDisplayMode])

	sdr := b.Node(RoleSdrWhiteScale).(*fakeNode)
	assert.Equal(t, ecolor.NominalRefWhite, sdr.props[PropInputWhiteLevel])
	assert.Equal(t, 80.0, sdr.props[PropOutputWhiteLevel])

	cm := b.ColorManagement().(*fakeNode)
	assert.Equal(t, ecolor.ColorProfile{Kind: ecolor.ProfileLinearSRGB}, cm.props[PropDestinationProfile])

	// HDR display: no SDR white level correction
	require.NoError(t, b.Configure(paramsFor(EffectHdrTonemap, true)))
	sdr = b.Node(RoleSdrWhiteScale).(*fakeNode)
	assert.Empty(t, sdr.props)
}

func TestBuilderFallback(t *testing.T) {
	h := newFakeHost(false, false)
	b := newBuiltBuilder(t, h)
	require.NoError(t, b.Configure(paramsFor(EffectHdrTonemap, false)))

	assert.Equal(t, NodeCustomTonemap, b.Node(RoleHdrTonemap).Kind())
	ph := b.Node(RoleSdrWhiteScale).(*fakeNode)
	assert.Equal(t, NodePlaceholder, ph.kind)
	assert.Empty(t, ph.props)
	assert.Same(t, ph, b.Output())
}

func TestBuilderSphereMap(t *testing.T) {
	h := newFakeHost(true, true)
	b := newBuiltBuilder(t, h)

	require.NoError(t, b.SetSceneSize(emath.Vec2{800, 450}))
	require.NoError(t, b.SetSphereView(emath.Vec2{0.25, 0.5}, 0.75))
	require.NoError(t, b.Configure(paramsFor(EffectSphereMap, false)))

	sm := b.Node(RoleSphereMap).(*fakeNode)
	assert.Equal(t, emath.Vec2{800, 450}, sm.props[PropSceneSize])
	assert.Equal(t, emath.Vec2{0.25, 0.5}, sm.props[PropCenter])
	assert.Equal(t, 0.75, sm.props[PropZoom])

	border := b.Node(RoleBorder).(*fakeNode)
	assert.Equal(t, EdgeWrap, border.props[PropEdgeModeX])
	assert.Equal(t, EdgeWrap, border.props[PropEdgeModeY])

	require.NoError(t, b.SetSphereView(emath.Vec2{0.5, 0.5}, 0.5))
	assert.Equal(t, 0.5, sm.props[PropZoom])
}

func TestBuilderErrors(t *testing.T) {
	b := NewBuilder(newFakeHost(true, true))
	assert.ErrorIs(t, b.Configure(paramsFor(EffectNone, false)), ErrNoImage)

	h := newFakeHost(true, true)
	b = newBuiltBuilder(t, h)
	require.NoError(t, b.Configure(paramsFor(EffectNone, false)))
	before := b.Describe()

	// Unknown modes fail without touching the graph
	assert.ErrorIs(t, b.Configure(paramsFor(RenderEffectKind(9), false)), ErrNotImplemented)
	assert.Equal(t, before, b.Describe())

	boom := errors.New("out of video memory")
	h.failKind[NodeSdrOverlay] = boom
	err := b.Configure(paramsFor(EffectSdrOverlay, false))
	var ce *CreationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, NodeSdrOverlay, ce.Kind)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, b.Output())

	h.failKind[NodeColorManagement] = boom
	b = NewBuilder(h)
	assert.ErrorIs(t, b.BuildPrefix(blankImage{}, 1, ecolor.ColorProfile{}), boom)
	assert.False(t, b.Built())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, NodeScale.Validate(Prop(PropScale, emath.Vec2{0.5, 0.5})))
	assert.ErrorIs(t, NodeScale.Validate(Prop(PropScale, 0.5)), ErrInvalidProperty)
	assert.ErrorIs(t, NodeScale.Validate(Prop(PropZoom, 0.5)), ErrInvalidProperty)
	assert.ErrorIs(t, NodePlaceholder.Validate(Prop(PropInputWhiteLevel, 80.0)), ErrInvalidProperty)
	assert.NoError(t, NodeCustomTonemap.Validate(Prop(PropDisplayMode, ecolor.TonemapHDR)))
	assert.ErrorIs(t, NodeSource.Validate(Prop(PropSourceImage, nil)), ErrInvalidProperty)

	h := newFakeHost(true, true)
	n, err := Create(h, NodeHistogram)
	require.NoError(t, err)
	err = Set(h, n, Prop(PropNumBins, 400.0))
	var ce *CreationError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ErrInvalidProperty)
}
