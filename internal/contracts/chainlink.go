package contracts

import (
	"fmt"
	"math/big"
)

// RoundData is the subset of latestRoundData the price source consumes.
type RoundData struct {
	RoundID   *big.Int
	Answer    *big.Int
	UpdatedAt *big.Int
}

func PackFeedDecimals() ([]byte, error) {
	return ChainlinkAggregator.Pack("decimals")
}

func UnpackFeedDecimals(data []byte) (uint8, error) {
	return unpackOne[uint8](ChainlinkAggregator, "decimals", data)
}

func PackLatestRoundData() ([]byte, error) {
	return ChainlinkAggregator.Pack("latestRoundData")
}

func UnpackLatestRoundData(data []byte) (RoundData, error) {
	decoded, err := ChainlinkAggregator.Unpack("latestRoundData", data)
	if err != nil {
		return RoundData{}, fmt.Errorf("decode latestRoundData: %w", err)
	}
	if len(decoded) != 5 {
		return RoundData{}, fmt.Errorf("decode latestRoundData: expected 5 values, got %d", len(decoded))
	}
	roundID, ok1 := decoded[0].(*big.Int)
	answer, ok2 := decoded[1].(*big.Int)
	updatedAt, ok3 := decoded[3].(*big.Int)
	if !ok1 || !ok2 || !ok3 {
		return RoundData{}, fmt.Errorf("decode latestRoundData: unexpected value types")
	}
	return RoundData{RoundID: roundID, Answer: answer, UpdatedAt: updatedAt}, nil
}
