package mcpserver

// RecordFormatContract describes how posts are stored in the site's page
// files so that LLM consumers can read or hand-edit them correctly.
const RecordFormatContract = `# Raido Record Format

Posts live as JavaScript object literals inside array literals of React page
files. The same logical post appears in several views; each view keeps only
the fields it needs.

## Views

| View | File | Array | Notes |
|---|---|---|---|
| home | src/pages/Home.js | recentPosts | may sit inside useMemo(() => [...]) |
| writeups | src/pages/Writeups.js | writeups | carries difficulty and os |
| tags-posts | src/pages/Tags.js | allPosts | canonical view, source of the tag counts |
| tag-detail | src/pages/TagDetail.js | allPosts | |
| projects | src/pages/Projects.js | projects | read-only for sync operations |

## Record

` + "```" + `js
{
  uid: '6f1c4e0a-...',          // immutable, assigned on creation
  id: 5,                        // per-view, max(id)+1 on insert
  title: 'Puppy Walkthrough',
  excerpt: 'Puppy - AD box',
  date: 'Jul 04, 2025',
  category: 'writeup',
  tags: ['windows', 'ad'],
  image: '/images/writeups/puppy/machine.png',
  link: '/writeups/puppy-walkthrough',
  difficulty: 'Medium',
  os: 'Windows'
}
` + "```" + `

## Rules

1. Strings use single quotes; ` + "`\\'`" + ` escapes a quote inside a string.
2. New records are prepended, so arrays are ordered newest first.
3. Tags are lowercase. Each post's tags must be identical in every view.
4. The ` + "`tags`" + ` array in Tags.js is derived from allPosts. Never edit counts by
   hand; run ` + "`raido retag`" + ` or POST /api/tags/rebuild.
5. The grouping key of a post is the link without the ` + "`/writeups/`" + ` prefix and
   ` + "`-walkthrough`" + ` suffix. Legacy records without a uid are matched by it.
6. Images live in public/images/writeups/<key>/machine.<ext>.
`
