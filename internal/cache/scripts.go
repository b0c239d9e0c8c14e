package cache

import "github.com/redis/go-redis/v9"

// incrIfExists 只在 hash 已存在时 HINCRBY，
// 计数更新不会造出残缺的记录
var incrIfExists = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return redis.call('HINCRBY', KEYS[1], ARGV[1], ARGV[2])
end
return false
`)

// appendIndexed 每个 id ARGV[1] 只把 ARGV[2] 推入列表 KEYS[1] 一次，
// 下标记在 hash KEYS[2]。设置了 KEYS[3] 时，首次推入会给该 hash 的
// ARGV[3] 字段加 1
var appendIndexed = redis.NewScript(`
if redis.call('HEXISTS', KEYS[2], ARGV[1]) == 1 then
  return 0
end
local n = redis.call('RPUSH', KEYS[1], ARGV[2])
redis.call('HSET', KEYS[2], ARGV[1], n - 1)
if KEYS[3] and redis.call('EXISTS', KEYS[3]) == 1 then
  redis.call('HINCRBY', KEYS[3], ARGV[3], 1)
end
return 1
`)

// followEdge 切换 follower(ARGV[1]) -> followee(ARGV[2]) 这条边。
// KEYS: followers:<followee>, following:<follower>, users:<followee>, users:<follower>。
// ARGV[3] 为 "1" 关注、"0" 取关；ARGV[4]、ARGV[5] 是
// 粉丝数和关注数字段名。只有边真正变化时才改列表和计数，
// 变化时返回 1
var followEdge = redis.NewScript(`
local present = redis.call('LREM', KEYS[2], 0, ARGV[2]) > 0
redis.call('LREM', KEYS[1], 0, ARGV[1])
local delta = 0
if ARGV[3] == '1' then
  redis.call('LPUSH', KEYS[2], ARGV[2])
  redis.call('LPUSH', KEYS[1], ARGV[1])
  if not present then delta = 1 end
elseif present then
  delta = -1
end
if delta ~= 0 then
  if redis.call('EXISTS', KEYS[3]) == 1 then
    redis.call('HINCRBY', KEYS[3], ARGV[4], delta)
  end
  if redis.call('EXISTS', KEYS[4]) == 1 then
    redis.call('HINCRBY', KEYS[4], ARGV[5], delta)
  end
  return 1
end
return 0
`)

// addChatEntry 在 hash KEYS[1] 中记录 receiver ARGV[1] -> conversation ARGV[2]，
// 并且只在第一次时把条目 ARGV[3] 追加到列表 KEYS[2]
var addChatEntry = redis.NewScript(`
if redis.call('HSETNX', KEYS[1], ARGV[1], ARGV[2]) == 1 then
  redis.call('RPUSH', KEYS[2], ARGV[3])
  return 1
end
return 0
`)
