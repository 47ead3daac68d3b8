package sqlinline

const QSelectShopSettings = `--sql 6d0c51f2-93a4-4c1e-8b7f-2e5a9d4c7b10
select shop, tone, image_style, image_count, pricing_strategy, updated_at
from ai_settings
where shop = $1::text;
`

const QUpsertShopSettings = `--sql a41f7e83-0c2d-4b5a-9e61-7f3b2d8c9a04
insert into ai_settings(shop, tone, image_style, image_count, pricing_strategy, created_at, updated_at)
values ($1::text, $2::text, $3::text, $4::int, $5::text, now(), now())
on conflict (shop) do update
set tone = excluded.tone,
    image_style = excluded.image_style,
    image_count = excluded.image_count,
    pricing_strategy = excluded.pricing_strategy,
    updated_at = now()
returning shop, tone, image_style, image_count, pricing_strategy, updated_at;
`
