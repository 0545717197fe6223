package domain

// NumDimensions is the number of packet header fields a rule constrains.
const NumDimensions = 5

// FieldBits holds the bit width of each field, in Dimension order.
var FieldBits = [NumDimensions]uint{32, 32, 16, 16, 8}

// RootRegionID is the identifier of the region every tree starts from.
const RootRegionID RegionID = 0

// AggregateKey is the reserved info key that carries the EpisodeSummary on the
// final step. It aliases the root region, which has no per-region info of its own.
const AggregateKey = RootRegionID
