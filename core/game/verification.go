package game

import (
	"context"
	"encoding/base64"

	"github.com/frostbyte-dev/santa-ring/core/apperr"
	"github.com/frostbyte-dev/santa-ring/core/bijection"
	"github.com/frostbyte-dev/santa-ring/core/identity"
	"github.com/frostbyte-dev/santa-ring/core/store"
)

// verifyRejection implements the verification engine in full, including
// the self-assignment bijection check. Returns nil if the rejection is
// valid, or a LIAR_LIAR_PANTS_ON_FIRE apperr.Error otherwise.
func verifyRejection(ctx context.Context, repo store.RoomRepository, roomID, memberID, proof string) error {
	decoded, err := base64.StdEncoding.DecodeString(proof)
	if err != nil {
		return apperr.LiarLiarPantsOnFire("rejection proof is not valid base64")
	}
	claimedSantaID := identity.Sha256Hex(decoded)

	santaIDs, err := repo.GetSantaIDMessages(ctx, roomID)
	if err != nil {
		return err
	}
	if !contains(santaIDs, claimedSantaID) {
		return apperr.LiarLiarPantsOnFire("proof is not a Santa-ID")
	}

	seedComponents, err := repo.GetSeedReveals(ctx, roomID)
	if err != nil {
		return err
	}
	pooledSeed, err := bijection.CombineSeedComponents(seedComponents)
	if err != nil {
		return apperr.Unknown(err)
	}

	names, err := repo.GetMemberNames(ctx, roomID)
	if err != nil {
		return err
	}
	accuserName, err := repo.GetMemberName(ctx, memberID)
	if err != nil {
		return err
	}

	if !bijection.IsSelfAssigned(pooledSeed, santaIDs, names, claimedSantaID, accuserName) {
		return apperr.LiarLiarPantsOnFire("proof does not demonstrate self-assignment")
	}
	return nil
}

func contains(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}
