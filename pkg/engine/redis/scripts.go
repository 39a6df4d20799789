package redis

import "github.com/redis/go-redis/v9"

// putScript writes an entry, sets its server-side expiry, records it in the region index and
// trims the index back to the bound.
//
// KEYS: entry, index
// ARGV: data, deadline ms, idle ms, pttl ms (0 persists), score, "insert"|"touch", member,
// max entries (0 unbounded), entry key prefix, value type name.
var putScript = redis.NewScript(`
redis.call('HSET', KEYS[1], 'data', ARGV[1], 'deadline', ARGV[2], 'idle', ARGV[3], 'type', ARGV[10])
local pttl = tonumber(ARGV[4])
if pttl > 0 then
	redis.call('PEXPIRE', KEYS[1], pttl)
else
	redis.call('PERSIST', KEYS[1])
end
if ARGV[6] == 'insert' then
	redis.call('ZADD', KEYS[2], 'NX', ARGV[5], ARGV[7])
else
	redis.call('ZADD', KEYS[2], ARGV[5], ARGV[7])
end
local max = tonumber(ARGV[8])
if max <= 0 then
	return 0
end
local n = redis.call('ZCARD', KEYS[2]) - max
if n <= 0 then
	return 0
end
local popped = redis.call('ZPOPMIN', KEYS[2], n)
for i = 1, #popped, 2 do
	redis.call('DEL', ARGV[9] .. popped[i])
end
return n
`)

// removeScript deletes an entry and its index member and returns the entry's data, deadline and
// value type name.
//
// KEYS: entry, index
// ARGV: member.
var removeScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'data', 'deadline', 'type')
redis.call('ZREM', KEYS[2], ARGV[1])
if not v[1] then
	return false
end
redis.call('DEL', KEYS[1])
return v
`)
