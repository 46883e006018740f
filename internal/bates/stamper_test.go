package bates

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRotationFoldsIntoFourQuadrants(t *testing.T) {
	require.Equal(t, 0, normalizeRotation(0))
	require.Equal(t, 90, normalizeRotation(90))
	require.Equal(t, 270, normalizeRotation(-90))
	require.Equal(t, 180, normalizeRotation(540))
}

func TestAnchorRectangleRespectsMargin(t *testing.T) {
	const margin = 36.0
	rect := anchorRectangle(612, 792, 50, 12, AnchorBottomRight, margin)
	require.Equal(t, 612-margin-50, rect.X0)
	require.Equal(t, margin, rect.Y0)

	rect = anchorRectangle(612, 792, 50, 12, AnchorTopRight, margin)
	require.Equal(t, 612-margin-50, rect.X0)
	require.Equal(t, 792-margin-12, rect.Y0)

	rect = anchorRectangle(612, 792, 50, 12, AnchorBottomCenter, margin)
	require.Equal(t, (612.0-50)/2, rect.X0)
	require.Equal(t, margin, rect.Y0)
}

func TestStampFilePerPageLabelsMatchPlanEntries(t *testing.T) {
	// formatBates is exercised directly here (rather than through
	// StampFile, which requires a real PDF fixture) to confirm each page
	// in a multi-page range gets its own distinct number: a document
	// spanning REX0000001..REX0000002 must label page 1 and page 2
	// differently, never the same range string on both pages.
	labels := []string{
		formatBates("REX", 7, 1),
		formatBates("REX", 7, 2),
	}
	require.Equal(t, []string{"REX0000001", "REX0000002"}, labels)
	require.NotEqual(t, labels[0], labels[1])
}
