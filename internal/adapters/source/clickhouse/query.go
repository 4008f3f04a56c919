package clickhouse

// WeekendMetricsQuery aggregates NYC taxi trips per calendar month for
// Saturdays and Sundays separately. Each side first aggregates per pickup day
// and then averages the daily figures per month. The sides are joined with a
// FULL OUTER JOIN so a month with trips on only one weekend day still yields a
// row; the missing side is NULL when join_use_nulls is set.
//
// toDayOfWeek counts Monday as 1, so Saturday is 6 and Sunday is 7.
const WeekendMetricsQuery = `
SELECT
    coalesce(sat.month, sun.month) AS month,
    sat.sat_mean_trip_count,
    sat.sat_mean_fare_per_trip,
    sat.sat_mean_duration_per_trip,
    sun.sun_mean_trip_count,
    sun.sun_mean_fare_per_trip,
    sun.sun_mean_duration_per_trip
FROM
(
    SELECT
        formatDateTime(pickup_date, '%Y-%m') AS month,
        round(avg(trip_count), 1) AS sat_mean_trip_count,
        round(avg(mean_fare), 1) AS sat_mean_fare_per_trip,
        round(avg(mean_duration), 1) AS sat_mean_duration_per_trip
    FROM
    (
        SELECT
            pickup_date,
            count() AS trip_count,
            avg(fare_amount) AS mean_fare,
            avg(dateDiff('minute', pickup_datetime, dropoff_datetime)) AS mean_duration
        FROM tripdata
        WHERE pickup_date BETWEEN toDate('2014-01-01') AND toDate('2016-12-31')
          AND toDayOfWeek(pickup_date) = 6
        GROUP BY pickup_date
    )
    GROUP BY month
) AS sat
FULL OUTER JOIN
(
    SELECT
        formatDateTime(pickup_date, '%Y-%m') AS month,
        round(avg(trip_count), 1) AS sun_mean_trip_count,
        round(avg(mean_fare), 1) AS sun_mean_fare_per_trip,
        round(avg(mean_duration), 1) AS sun_mean_duration_per_trip
    FROM
    (
        SELECT
            pickup_date,
            count() AS trip_count,
            avg(fare_amount) AS mean_fare,
            avg(dateDiff('minute', pickup_datetime, dropoff_datetime)) AS mean_duration
        FROM tripdata
        WHERE pickup_date BETWEEN toDate('2014-01-01') AND toDate('2016-12-31')
          AND toDayOfWeek(pickup_date) = 7
        GROUP BY pickup_date
    )
    GROUP BY month
) AS sun
ON sat.month = sun.month
ORDER BY month
`
