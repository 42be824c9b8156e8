package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/small-frappuccino/embedbuilder/pkg/embeds"
	"github.com/small-frappuccino/embedbuilder/pkg/log"
)

// EmbedsCollection holds one document per guild.
const EmbedsCollection = "embeds"

// MongoOptions configures ConnectMongo.
type MongoOptions struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	MinPoolSize    uint64
	ConnectTimeout time.Duration
}

// MongoStore keeps every guild's embeds in a single document of the embeds
// collection, addressed with dotted paths embeds.<name>.config and
// embeds.<name>.channels.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// ConnectMongo dials the server, checks it with a ping and returns a store on
// the embeds collection of opts.Database.
func ConnectMongo(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.URI == "" {
		return nil, errors.New("mongo uri is empty")
	}
	if opts.Database == "" {
		return nil, errors.New("mongo database name is empty")
	}
	if opts.MaxPoolSize == 0 {
		opts.MaxPoolSize = 50
	}
	if opts.MinPoolSize == 0 {
		opts.MinPoolSize = 2
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}

	clientOpts := options.Client().ApplyURI(opts.URI).
		SetMaxPoolSize(opts.MaxPoolSize).
		SetMinPoolSize(opts.MinPoolSize).
		SetConnectTimeout(opts.ConnectTimeout)

	connectCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	log.DatabaseLogger().Info("Connected to MongoDB", "database", opts.Database)
	return NewMongoStore(client, client.Database(opts.Database).Collection(EmbedsCollection)), nil
}

// NewMongoStore wraps an existing collection.
func NewMongoStore(client *mongo.Client, coll *mongo.Collection) *MongoStore {
	return &MongoStore{client: client, coll: coll}
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	log.DatabaseLogger().Info("Disconnected from MongoDB")
	return nil
}

func embedPath(name string) string    { return "embeds." + name }
func configPath(name string) string   { return embedPath(name) + ".config" }
func channelsPath(name string) string { return embedPath(name) + ".channels" }

func (s *MongoStore) loadGuild(ctx context.Context, guildID string, projection bson.M) (guildDoc, error) {
	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}
	var doc guildDoc
	err := s.coll.FindOne(ctx, bson.M{"guild_id": guildID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return guildDoc{GuildID: guildID}, nil
	}
	if err != nil {
		return guildDoc{}, fmt.Errorf("find guild %s: %w", guildID, err)
	}
	return doc, nil
}

func (s *MongoStore) GetEmbed(ctx context.Context, guildID, name string) (*embeds.Definition, error) {
	doc, err := s.loadGuild(ctx, guildID, bson.M{embedPath(name): 1, "guild_id": 1})
	if err != nil {
		return nil, err
	}
	entry, ok := doc.Embeds[name]
	if !ok {
		return nil, ErrNotFound
	}
	def, ok := decodeEntry(guildID, name, entry)
	if !ok {
		return nil, ErrNotFound
	}
	return &def, nil
}

func (s *MongoStore) SaveEmbed(ctx context.Context, guildID, name string, def embeds.Definition) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"guild_id": guildID},
		bson.M{"$set": bson.M{configPath(name): encodeConfig(def)}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save embed %s: %w", name, err)
	}
	return nil
}

func (s *MongoStore) DeleteEmbed(ctx context.Context, guildID, name string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"guild_id": guildID},
		bson.M{"$unset": bson.M{embedPath(name): ""}},
	)
	if err != nil {
		return fmt.Errorf("delete embed %s: %w", name, err)
	}
	return nil
}

func (s *MongoStore) ListEmbeds(ctx context.Context, guildID string) (map[string]embeds.Definition, error) {
	doc, err := s.loadGuild(ctx, guildID, nil)
	if err != nil {
		return nil, err
	}
	return decodeGuild(doc), nil
}

func (s *MongoStore) FindButton(ctx context.Context, guildID, customID string) (embeds.Button, string, error) {
	all, err := s.ListEmbeds(ctx, guildID)
	if err != nil {
		return embeds.Button{}, "", err
	}
	b, name, ok := findButton(all, customID)
	if !ok {
		return embeds.Button{}, "", ErrNotFound
	}
	return b, name, nil
}

func (s *MongoStore) ListActions(ctx context.Context, guildID, embedName, customID string) ([]embeds.Action, error) {
	def, err := s.GetEmbed(ctx, guildID, embedName)
	if err != nil {
		return nil, err
	}
	return buttonActions(def, customID)
}

func (s *MongoStore) ReplaceActions(ctx context.Context, guildID, embedName, customID string, actions []embeds.Action) error {
	def, err := s.GetEmbed(ctx, guildID, embedName)
	if err != nil {
		return err
	}
	buttons, err := withActions(def, customID, actions)
	if err != nil {
		return err
	}
	_, err = s.coll.UpdateOne(ctx,
		bson.M{"guild_id": guildID},
		bson.M{"$set": bson.M{configPath(embedName) + ".buttons": encodeButtons(buttons)}},
	)
	if err != nil {
		return fmt.Errorf("replace actions on %s/%s: %w", embedName, customID, err)
	}
	return nil
}

func (s *MongoStore) GetOpposingActionRoles(ctx context.Context, guildID, embedName, customID string, kind embeds.ActionKind) ([]string, error) {
	actions, err := s.ListActions(ctx, guildID, embedName, customID)
	if err != nil {
		return nil, err
	}
	return opposingRoles(actions, kind), nil
}

// updateExisting applies update only when the embed's config exists.
func (s *MongoStore) updateExisting(ctx context.Context, guildID, name string, update bson.M) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"guild_id": guildID, configPath(name): bson.M{"$exists": true}},
		update,
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) AttachChannel(ctx context.Context, guildID, name, channelID string) error {
	return s.updateExisting(ctx, guildID, name, bson.M{"$addToSet": bson.M{channelsPath(name): channelID}})
}

func (s *MongoStore) DetachChannel(ctx context.Context, guildID, name, channelID string) error {
	return s.updateExisting(ctx, guildID, name, bson.M{"$pull": bson.M{channelsPath(name): channelID}})
}

func (s *MongoStore) ClearChannels(ctx context.Context, guildID, name string) error {
	return s.updateExisting(ctx, guildID, name, bson.M{"$set": bson.M{channelsPath(name): bson.A{}}})
}

func (s *MongoStore) ListChannels(ctx context.Context, guildID, name string) ([]string, error) {
	def, err := s.GetEmbed(ctx, guildID, name)
	if err != nil {
		return nil, err
	}
	return def.Channels, nil
}

func (s *MongoStore) ListGuilds(ctx context.Context) ([]string, error) {
	values, err := s.coll.Distinct(ctx, "guild_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if id, ok := v.(string); ok && id != "" {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

var _ EmbedStore = (*MongoStore)(nil)
