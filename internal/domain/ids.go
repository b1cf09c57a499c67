package domain

// ProfileID identifies a profile of any type. All profile types share one
// identity space; the id is opaque to callers.
type ProfileID string

// ImageID is an internal identifier for an image record.
type ImageID string

// ExternalAssetID points into the external asset host. Its format is
// controlled by the host, so we keep it opaque.
type ExternalAssetID string
