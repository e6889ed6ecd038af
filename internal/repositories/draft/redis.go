package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/draftnight/draftbot/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	// Key prefixes for Redis
	draftKeyPrefix       = "draft:"
	guildOpenKeyPrefix   = "guild_open_draft:"
	guildLatestKeyPrefix = "guild_latest_draft:"
	picksKeyPrefix       = "draft_picks:"
	teamKeyPrefix        = "team:"
	draftTeamsKeyPrefix  = "draft_teams:"
	assignedTeamsKey     = "assigned_teams"
)

// Errors returned by the repository
var (
	// ErrDraftNotFound is returned when a draft is not found
	ErrDraftNotFound = errors.New("draft not found")

	// ErrGuildHasOpenDraft is returned when creating a draft for a guild
	// that already has one open
	ErrGuildHasOpenDraft = errors.New("guild already has an open draft")

	// ErrVersionConflict is returned when a commit lost to a concurrent
	// writer; callers reload the draft, revalidate, and retry
	ErrVersionConflict = errors.New("draft was modified concurrently")

	// ErrTeamTaken is returned when a team assignment already exists for
	// the requested team name
	ErrTeamTaken = errors.New("team is already assigned")

	// ErrTeamNotAssigned is returned when no assignment exists for a team
	ErrTeamNotAssigned = errors.New("team is not assigned")
)

// Config holds configuration for the Redis draft repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis.
//
// Concurrency: every state-changing method runs inside a WATCH/MULTI/EXEC
// transaction that watches the draft key (and the team key for claims and
// picks) and rewrites the draft key. Because all writers for a draft touch
// its key, the watch linearizes commits per draft: a writer holding a stale
// snapshot fails its version check or the EXEC itself, never half-applies.
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed draft repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// CreateDraft persists a new draft and marks it as the guild's open draft
func (r *redisRepository) CreateDraft(ctx context.Context, input *CreateDraftInput) error {
	if input == nil || input.Draft == nil {
		return errors.New("input and draft cannot be nil")
	}

	d := input.Draft
	draftJSON, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	// The open-draft pointer doubles as the creation guard. Pointer, draft
	// body, and latest pointer commit together under a watch on the pointer
	// key, so a failed create leaves nothing behind and a guild can never
	// point at a draft that was not written.
	openKey := guildOpenKeyPrefix + d.GuildID
	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, openKey).Result()
		if err != nil {
			return fmt.Errorf("failed to check open draft slot: %w", err)
		}
		if exists > 0 {
			return ErrGuildHasOpenDraft
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, openKey, d.ID, 0)
			pipe.Set(ctx, draftKeyPrefix+d.ID, draftJSON, 0)
			pipe.Set(ctx, guildLatestKeyPrefix+d.GuildID, d.ID, 0)
			return nil
		})
		return err
	}, openKey)

	if errors.Is(err, redis.TxFailedErr) {
		// A concurrent creator took the open slot between read and commit
		return ErrGuildHasOpenDraft
	}
	return err
}

// GetDraft retrieves a draft by ID from Redis
func (r *redisRepository) GetDraft(ctx context.Context, input *GetDraftInput) (*models.Draft, error) {
	if input == nil || input.DraftID == "" {
		return nil, errors.New("input and draft ID cannot be empty")
	}

	return r.getDraft(ctx, r.client, input.DraftID)
}

// GetOpenDraftByGuild retrieves the guild's open draft
func (r *redisRepository) GetOpenDraftByGuild(ctx context.Context, input *GetOpenDraftByGuildInput) (*models.Draft, error) {
	if input == nil || input.GuildID == "" {
		return nil, errors.New("input and guild ID cannot be empty")
	}

	return r.getDraftByPointer(ctx, guildOpenKeyPrefix+input.GuildID)
}

// GetLatestDraftByGuild retrieves the most recently created draft for a guild
func (r *redisRepository) GetLatestDraftByGuild(ctx context.Context, input *GetLatestDraftByGuildInput) (*models.Draft, error) {
	if input == nil || input.GuildID == "" {
		return nil, errors.New("input and guild ID cannot be empty")
	}

	return r.getDraftByPointer(ctx, guildLatestKeyPrefix+input.GuildID)
}

// UpdateDraft commits a mutated draft snapshot
func (r *redisRepository) UpdateDraft(ctx context.Context, input *UpdateDraftInput) error {
	if input == nil || input.Draft == nil {
		return errors.New("input and draft cannot be nil")
	}

	d := input.Draft
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		if err := r.checkVersion(ctx, tx, d); err != nil {
			return err
		}

		draftJSON, err := marshalNextVersion(d)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, draftKeyPrefix+d.ID, draftJSON, 0)
			if !d.Open() {
				pipe.Del(ctx, guildOpenKeyPrefix+d.GuildID)
			}
			return nil
		})
		return err
	}, draftKeyPrefix+d.ID)

	return r.commitErr(err)
}

// ClaimTeam commits a draft snapshot together with a team assignment
func (r *redisRepository) ClaimTeam(ctx context.Context, input *ClaimTeamInput) error {
	if input == nil || input.Draft == nil || input.Assignment == nil {
		return errors.New("input, draft, and assignment cannot be nil")
	}

	d := input.Draft
	teamKey := teamKeyPrefix + input.Assignment.TeamName

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		if err := r.checkVersion(ctx, tx, d); err != nil {
			return err
		}

		if err := r.checkTeamFree(ctx, tx, teamKey); err != nil {
			return err
		}

		draftJSON, err := marshalNextVersion(d)
		if err != nil {
			return err
		}

		assignmentJSON, err := json.Marshal(input.Assignment)
		if err != nil {
			return fmt.Errorf("failed to marshal assignment: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, draftKeyPrefix+d.ID, draftJSON, 0)
			pipe.Set(ctx, teamKey, assignmentJSON, 0)
			pipe.SAdd(ctx, assignedTeamsKey, input.Assignment.TeamName)
			pipe.SAdd(ctx, draftTeamsKeyPrefix+d.ID, input.Assignment.TeamName)
			if !d.Open() {
				pipe.Del(ctx, guildOpenKeyPrefix+d.GuildID)
			}
			return nil
		})
		return err
	}, draftKeyPrefix+d.ID, teamKey)

	return r.commitErr(err)
}

// RecordPick commits a draft snapshot together with a pick log entry and a
// team assignment
func (r *redisRepository) RecordPick(ctx context.Context, input *RecordPickInput) error {
	if input == nil || input.Draft == nil || input.Pick == nil || input.Assignment == nil {
		return errors.New("input, draft, pick, and assignment cannot be nil")
	}

	d := input.Draft
	teamKey := teamKeyPrefix + input.Assignment.TeamName
	picksKey := picksKeyPrefix + d.ID

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		if err := r.checkVersion(ctx, tx, d); err != nil {
			return err
		}

		if err := r.checkTeamFree(ctx, tx, teamKey); err != nil {
			return err
		}

		// The pick log must stay contiguous. A mismatch here means the
		// engine's invariants are already broken; abort rather than
		// write a gap or a duplicate.
		logged, err := tx.LLen(ctx, picksKey).Result()
		if err != nil {
			return fmt.Errorf("failed to read pick log length: %w", err)
		}
		if int(logged)+1 != input.Pick.PickNumber {
			return fmt.Errorf("pick log out of sequence: have %d entries, committing pick #%d", logged, input.Pick.PickNumber)
		}

		draftJSON, err := marshalNextVersion(d)
		if err != nil {
			return err
		}

		pickJSON, err := json.Marshal(input.Pick)
		if err != nil {
			return fmt.Errorf("failed to marshal pick: %w", err)
		}

		assignmentJSON, err := json.Marshal(input.Assignment)
		if err != nil {
			return fmt.Errorf("failed to marshal assignment: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, draftKeyPrefix+d.ID, draftJSON, 0)
			pipe.RPush(ctx, picksKey, pickJSON)
			pipe.Set(ctx, teamKey, assignmentJSON, 0)
			pipe.SAdd(ctx, assignedTeamsKey, input.Assignment.TeamName)
			pipe.SAdd(ctx, draftTeamsKeyPrefix+d.ID, input.Assignment.TeamName)
			if !d.Open() {
				pipe.Del(ctx, guildOpenKeyPrefix+d.GuildID)
			}
			return nil
		})
		return err
	}, draftKeyPrefix+d.ID, teamKey)

	return r.commitErr(err)
}

// CancelDraft commits a cancelled draft snapshot, optionally releasing the
// draft's team assignments
func (r *redisRepository) CancelDraft(ctx context.Context, input *CancelDraftInput) error {
	if input == nil || input.Draft == nil {
		return errors.New("input and draft cannot be nil")
	}

	d := input.Draft
	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		if err := r.checkVersion(ctx, tx, d); err != nil {
			return err
		}

		var owned []string
		if input.ReleaseTeams {
			var err error
			owned, err = tx.SMembers(ctx, draftTeamsKeyPrefix+d.ID).Result()
			if err != nil {
				return fmt.Errorf("failed to read draft team set: %w", err)
			}
		}

		draftJSON, err := marshalNextVersion(d)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, draftKeyPrefix+d.ID, draftJSON, 0)
			pipe.Del(ctx, guildOpenKeyPrefix+d.GuildID)
			for _, team := range owned {
				pipe.Del(ctx, teamKeyPrefix+team)
				pipe.SRem(ctx, assignedTeamsKey, team)
			}
			if input.ReleaseTeams {
				pipe.Del(ctx, draftTeamsKeyPrefix+d.ID)
			}
			return nil
		})
		return err
	}, draftKeyPrefix+d.ID)

	return r.commitErr(err)
}

// GetPicks retrieves a draft's pick log in pick-number order
func (r *redisRepository) GetPicks(ctx context.Context, input *GetPicksInput) ([]*models.Pick, error) {
	if input == nil || input.DraftID == "" {
		return nil, errors.New("input and draft ID cannot be empty")
	}

	entries, err := r.client.LRange(ctx, picksKeyPrefix+input.DraftID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read pick log: %w", err)
	}

	picks := make([]*models.Pick, 0, len(entries))
	for _, entry := range entries {
		var pick models.Pick
		if err := json.Unmarshal([]byte(entry), &pick); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pick: %w", err)
		}
		picks = append(picks, &pick)
	}

	return picks, nil
}

// GetTeamAssignment retrieves the registry entry for a team name
func (r *redisRepository) GetTeamAssignment(ctx context.Context, input *GetTeamAssignmentInput) (*models.AssignedTeam, error) {
	if input == nil || input.TeamName == "" {
		return nil, errors.New("input and team name cannot be empty")
	}

	entry, err := r.client.Get(ctx, teamKeyPrefix+input.TeamName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrTeamNotAssigned
		}
		return nil, fmt.Errorf("failed to get team assignment: %w", err)
	}

	var assignment models.AssignedTeam
	if err := json.Unmarshal([]byte(entry), &assignment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team assignment: %w", err)
	}

	return &assignment, nil
}

// ListAssignedTeams returns the set of all currently assigned team names
func (r *redisRepository) ListAssignedTeams(ctx context.Context, input *ListAssignedTeamsInput) (map[string]bool, error) {
	names, err := r.client.SMembers(ctx, assignedTeamsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned teams: %w", err)
	}

	taken := make(map[string]bool, len(names))
	for _, name := range names {
		taken[name] = true
	}

	return taken, nil
}

// getDraft loads and unmarshals a draft using the given command runner
func (r *redisRepository) getDraft(ctx context.Context, c redis.Cmdable, draftID string) (*models.Draft, error) {
	draftJSON, err := c.Get(ctx, draftKeyPrefix+draftID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	var d models.Draft
	if err := json.Unmarshal([]byte(draftJSON), &d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}

	return &d, nil
}

// getDraftByPointer resolves a guild pointer key to its draft
func (r *redisRepository) getDraftByPointer(ctx context.Context, pointerKey string) (*models.Draft, error) {
	draftID, err := r.client.Get(ctx, pointerKey).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrDraftNotFound
		}
		return nil, fmt.Errorf("failed to resolve draft pointer: %w", err)
	}

	return r.getDraft(ctx, r.client, draftID)
}

// checkVersion verifies the snapshot's version matches the stored draft
func (r *redisRepository) checkVersion(ctx context.Context, tx *redis.Tx, d *models.Draft) error {
	stored, err := r.getDraft(ctx, tx, d.ID)
	if err != nil {
		return err
	}
	if stored.Version != d.Version {
		return ErrVersionConflict
	}
	return nil
}

// checkTeamFree verifies no assignment exists under the watched team key
func (r *redisRepository) checkTeamFree(ctx context.Context, tx *redis.Tx, teamKey string) error {
	exists, err := tx.Exists(ctx, teamKey).Result()
	if err != nil {
		return fmt.Errorf("failed to check team assignment: %w", err)
	}
	if exists > 0 {
		return ErrTeamTaken
	}
	return nil
}

// commitErr maps an EXEC abort onto the conflict sentinel. A failed EXEC
// means a watched key changed between read and commit, which callers treat
// exactly like a version conflict: reload and retry.
func (r *redisRepository) commitErr(err error) error {
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	return err
}

// marshalNextVersion serializes a draft with its version advanced by one
func marshalNextVersion(d *models.Draft) ([]byte, error) {
	next := *d
	next.Version = d.Version + 1
	draftJSON, err := json.Marshal(&next)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft: %w", err)
	}
	return draftJSON, nil
}
