//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"casework/internal/access"
	"casework/internal/offender/store"
	"casework/pkg/platform/sentinel"
	"casework/pkg/testutil/containers"
)

func TestPostgresOffenderStore(t *testing.T) {
	ctx := context.Background()
	pc := containers.NewPostgresContainer(t)
	containers.ApplySchema(t, pc.DB)

	_, err := pc.DB.Exec(`INSERT INTO offenders
		(id, crn, noms_number, active_sentence, soft_deleted, current_exclusion, exclusion_message)
		VALUES
		(11, 'X320741', 'G9542VP', TRUE, FALSE, TRUE, 'You are excluded from this case'),
		(12, 'X320742', 'G9542VP', FALSE, FALSE, FALSE, NULL),
		(13, 'X320743', 'A1111AA', TRUE, TRUE, FALSE, NULL)`)
	require.NoError(t, err)

	s := store.NewPostgres(pc.DB)

	t.Run("find by crn", func(t *testing.T) {
		o, err := s.FindByCRN(ctx, "X320741")
		require.NoError(t, err)
		require.Equal(t, int64(11), o.ID)
		require.Equal(t, "You are excluded from this case", o.ExclusionMessage)
	})

	t.Run("soft deleted offenders are invisible", func(t *testing.T) {
		_, err := s.FindByCRN(ctx, "X320743")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
		_, err = s.FindByID(ctx, 13)
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("noms lookup returns every duplicate, case-insensitively", func(t *testing.T) {
		offenders, err := s.FindAllByNomsNumber(ctx, "g9542vp")
		require.NoError(t, err)
		require.Len(t, offenders, 2)
		require.Equal(t, int64(11), offenders[0].ID)
		require.Equal(t, int64(12), offenders[1].ID)
	})

	t.Run("directory answers from the user list tables", func(t *testing.T) {
		_, err := pc.DB.Exec(`INSERT INTO offender_exclusions (offender_id, username) VALUES (11, 'SHELDON.BECK')`)
		require.NoError(t, err)

		directory := access.NewPostgresDirectory(pc.DB)
		excluded, err := directory.IsExcludedFrom(ctx, "sheldon.beck", 11)
		require.NoError(t, err)
		require.True(t, excluded)

		authorised, err := directory.IsAuthorisedFor(ctx, "sheldon.beck", 11)
		require.NoError(t, err)
		require.False(t, authorised)
	})
}
