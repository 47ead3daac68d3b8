package sqlinline

const QInsertGeneration = `--sql 0b9e4d27-5f18-4a3c-b6d2-c81e7a5f3e92
insert into product_generations(id, shop, title, product_id, status, created_at)
values ($1::uuid, $2::text, $3::text, nullif($4::text, ''), $5::text, now())
returning id, shop, title, coalesce(product_id, ''), status, created_at;
`

const QSelectRecentGenerations = `--sql 58c3a1f6-e2b7-4d90-a4f5-19d6b0c2e7a3
select id, shop, title, coalesce(product_id, ''), status, created_at
from product_generations
where shop = $1::text
order by created_at desc
limit $2::int;
`

const QSelectGenerationStats = `--sql c72e5b04-81d9-4f6a-b3c8-4a0f1e9d6b25
select
  count(*)::int as total,
  count(*) filter (where status = 'published')::int as published
from product_generations
where shop = $1::text;
`

const QMarkGenerationPublished = `--sql 9d41f7a2-36c0-4e85-b1d9-e07a52c4f816
update product_generations
set product_id = $3::text, status = 'published'
where id = $1::uuid and shop = $2::text
returning id, shop, title, coalesce(product_id, ''), status, created_at;
`
